package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server         ServerSettings      `json:"server"`
	Fetch          FetchSettings       `json:"fetch"`
	Sites          []SiteSettings      `json:"sites"`
	DefaultSources map[string][]string `json:"defaultSources"`
	Log            LogSettings         `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// FetchSettings tunes the outbound HTTP layer shared by all adapters.
type FetchSettings struct {
	TimeoutSeconds        int `json:"timeoutSeconds"`        // per-fetch timeout
	RequestTimeoutSeconds int `json:"requestTimeoutSeconds"` // whole-request deadline for fan-out
	MaxConcurrent         int `json:"maxConcurrent"`         // outbound fetch gate, nested fetches included
	ChallengeSlots        int `json:"challengeSlots"`        // concurrent challenge-solver fetches
	RetryAttempts         int `json:"retryAttempts"`         // opt-in retry decorator default
	RetryDelayMs          int `json:"retryDelayMs"`
}

// SiteSettings is one row of the static site registry. The engine never
// mutates these; adapters read them at construction only.
type SiteSettings struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	BaseURL     string            `json:"baseUrl"`
	Kinds       []string          `json:"kinds"`     // anime | movie | series
	Languages   []string          `json:"languages"` // BCP 47 tags
	Enabled     bool              `json:"enabled"`
	Protected   bool              `json:"protected"` // behind an anti-bot challenge
	APIBased    bool              `json:"apiBased"`  // JSON endpoints instead of HTML pages
	SearchPath  string            `json:"searchPath"`  // template, {query} placeholder
	DetailsPath string            `json:"detailsPath"` // template, {id} placeholder
	Headers     map[string]string `json:"headers,omitempty"`
}

type LogSettings struct {
	File       string `json:"file"`
	MaxSizeMB  int    `json:"maxSizeMb"`
	MaxBackups int    `json:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays"`
	Level      string `json:"level"`
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads the settings file from disk, creating it with defaults when
// missing. Registry language tags are canonicalized on the way in.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}
	applyFallbacks(&s)
	for i := range s.Sites {
		s.Sites[i].Languages = normalizeLanguages(s.Sites[i].Languages)
	}
	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}

// applyFallbacks fills in zero values from an older or hand-edited file.
func applyFallbacks(s *Settings) {
	d := DefaultSettings()
	if s.Server.Port == 0 {
		s.Server = d.Server
	}
	if s.Fetch.TimeoutSeconds == 0 {
		s.Fetch.TimeoutSeconds = d.Fetch.TimeoutSeconds
	}
	if s.Fetch.RequestTimeoutSeconds == 0 {
		s.Fetch.RequestTimeoutSeconds = d.Fetch.RequestTimeoutSeconds
	}
	if s.Fetch.MaxConcurrent == 0 {
		s.Fetch.MaxConcurrent = d.Fetch.MaxConcurrent
	}
	if s.Fetch.ChallengeSlots == 0 {
		s.Fetch.ChallengeSlots = d.Fetch.ChallengeSlots
	}
	if s.Fetch.RetryAttempts == 0 {
		s.Fetch.RetryAttempts = d.Fetch.RetryAttempts
	}
	if s.Fetch.RetryDelayMs == 0 {
		s.Fetch.RetryDelayMs = d.Fetch.RetryDelayMs
	}
	if len(s.Sites) == 0 {
		s.Sites = d.Sites
	}
	if len(s.DefaultSources) == 0 {
		s.DefaultSources = d.DefaultSources
	}
}
