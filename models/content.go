package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Kind identifies the broad category of a piece of content.
type Kind string

const (
	KindAnime  Kind = "anime"
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
	KindAll    Kind = "all"
)

// ParseKind maps a request string onto a Kind, defaulting to "all".
func ParseKind(raw string) Kind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "anime":
		return KindAnime
	case "movie":
		return KindMovie
	case "series":
		return KindSeries
	default:
		return KindAll
	}
}

// Status describes the airing state of a series or anime.
type Status string

const (
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusUnknown   Status = "unknown"
)

// ParseStatus normalizes free-form status text scraped from a page.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ongoing", "airing", "returning series":
		return StatusOngoing
	case "completed", "finished", "ended":
		return StatusCompleted
	default:
		return StatusUnknown
	}
}

// SourceKind classifies a video source. Named host values correspond to
// embed providers that need a dedicated extraction step before playback.
type SourceKind string

const (
	SourceDirect     SourceKind = "direct"
	SourceHLS        SourceKind = "hls"
	SourceDASH       SourceKind = "dash"
	SourceIframe     SourceKind = "iframe"
	SourceStreamtape SourceKind = "streamtape"
	SourceDoodstream SourceKind = "doodstream"
	SourceMixdrop    SourceKind = "mixdrop"
	SourceUpstream   SourceKind = "upstream"
	SourceVidcloud   SourceKind = "vidcloud"
	SourceMp4upload  SourceKind = "mp4upload"
	SourceYourupload SourceKind = "yourupload"
	SourceSbembed    SourceKind = "sbembed"
	SourceFilemoon   SourceKind = "filemoon"
	SourceVoe        SourceKind = "voe"
)

// Quality is a display label for a stream's resolution tier.
type Quality string

const (
	Quality360     Quality = "360p"
	Quality480     Quality = "480p"
	Quality720     Quality = "720p"
	Quality1080    Quality = "1080p"
	Quality1440    Quality = "1440p"
	Quality4K      Quality = "4k"
	QualityUnknown Quality = "unknown"
)

// Subtitle is a caption track attached to a video source.
type Subtitle struct {
	URL      string `json:"url"`
	Language string `json:"language"`
	Label    string `json:"label,omitempty"`
}

// DownloadLink points at a downloadable file rather than a stream.
type DownloadLink struct {
	URL     string  `json:"url"`
	Label   string  `json:"label,omitempty"`
	Quality Quality `json:"quality,omitempty"`
}

// VideoSource is a single playable stream reference.
type VideoSource struct {
	URL        string            `json:"url"`
	Kind       SourceKind        `json:"type"`
	Quality    Quality           `json:"quality"`
	Language   string            `json:"language"`
	IsPlaylist bool              `json:"is_m3u8"`
	Headers    map[string]string `json:"headers,omitempty"`
	Subtitles  []Subtitle        `json:"subtitles,omitempty"`
	Referer    string            `json:"referer"`
}

// NewVideoSource builds a source with the playlist flag derived from the
// URL, keeping the two consistent. Callers set quality and language after
// construction when the page exposes them.
func NewVideoSource(rawURL string, kind SourceKind, referer string) VideoSource {
	return VideoSource{
		URL:        rawURL,
		Kind:       kind,
		Quality:    QualityUnknown,
		Language:   "en",
		IsPlaylist: PlaylistURL(rawURL),
		Referer:    referer,
	}
}

// PlaylistURL reports whether a URL points at a segmented streaming
// manifest (HLS or DASH) rather than a single file.
func PlaylistURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return strings.Contains(lower, ".m3u8") || strings.Contains(lower, ".mpd")
}

// SearchResult is one hit from a source's search endpoint. Results are
// ephemeral: built per request, serialized, discarded.
type SearchResult struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Poster string `json:"poster"`
	Kind   Kind   `json:"type"`
	Source string `json:"source"`
	Year   string `json:"year,omitempty"`
}

// Episode is one watchable unit inside a series or anime. Number is
// 1-based; 0 means the source did not expose an index. Sources stay empty
// until explicitly resolved.
type Episode struct {
	Number        int            `json:"number"`
	Title         string         `json:"title"`
	ID            string         `json:"id"`
	Thumbnail     string         `json:"thumbnail,omitempty"`
	Description   string         `json:"description,omitempty"`
	Duration      string         `json:"duration,omitempty"`
	ReleaseDate   string         `json:"release_date,omitempty"`
	Sources       []VideoSource  `json:"sources"`
	DownloadLinks []DownloadLink `json:"download_links,omitempty"`
}

// Season groups episodes for seasoned series. EpisodeCount carries the
// declared count for seasons whose episode list was not resolved; once
// Episodes is populated the length wins and the declared value is ignored.
type Season struct {
	Number       int       `json:"number"`
	Title        string    `json:"title"`
	ID           string    `json:"id"`
	Episodes     []Episode `json:"episodes"`
	EpisodeCount int       `json:"episode_count"`
}

// EffectiveEpisodeCount applies the fallback rule: len(episodes) when the
// list is populated, else the declared count.
func (s *Season) EffectiveEpisodeCount() int {
	if len(s.Episodes) > 0 {
		return len(s.Episodes)
	}
	return s.EpisodeCount
}

func (s Season) MarshalJSON() ([]byte, error) {
	type alias Season
	a := alias(s)
	a.EpisodeCount = s.EffectiveEpisodeCount()
	if a.Episodes == nil {
		a.Episodes = []Episode{}
	}
	return json.Marshal(a)
}

// ContentDetails is the aggregate root returned by a details lookup.
// Exactly one of Episodes, Seasons or Sources is the populated branch,
// selected by Kind: movies carry Sources, flat anime/series carry
// Episodes, seasoned series carry Seasons.
type ContentDetails struct {
	Title             string         `json:"title"`
	OriginalTitle     string         `json:"original_title,omitempty"`
	ID                string         `json:"id"`
	Kind              Kind           `json:"type"`
	Description       string         `json:"description"`
	Poster            string         `json:"poster"`
	Banner            string         `json:"banner,omitempty"`
	Rating            string         `json:"rating,omitempty"`
	ReleaseYear       string         `json:"release_year,omitempty"`
	Genres            []string       `json:"genres"`
	Status            Status         `json:"status"`
	Duration          string         `json:"duration,omitempty"`
	Country           string         `json:"country,omitempty"`
	Language          string         `json:"language,omitempty"`
	EpisodeCount      int            `json:"episode_count"`
	Episodes          []Episode      `json:"episodes"`
	SeasonCount       int            `json:"season_count"`
	Seasons           []Season       `json:"seasons"`
	Sources           []VideoSource  `json:"sources"`
	AlternativeTitles []string       `json:"alternative_titles,omitempty"`
	Cast              []string       `json:"cast,omitempty"`
	Director          string         `json:"director,omitempty"`
	Studio            string         `json:"studio,omitempty"`
	DownloadLinks     []DownloadLink `json:"download_links,omitempty"`
	SourceSite        string         `json:"source_site"`
	SourceURL         string         `json:"source_url"`
	ScrapedAt         time.Time      `json:"scraped_at"`
}

// PrimaryBranch names whichever of the three content branches is
// populated; empty string when none is.
func (d *ContentDetails) PrimaryBranch() string {
	switch {
	case len(d.Sources) > 0:
		return "sources"
	case len(d.Seasons) > 0:
		return "seasons"
	case len(d.Episodes) > 0:
		return "episodes"
	}
	return ""
}

// AddGenres appends genres keeping the set deduplicated.
func (d *ContentDetails) AddGenres(genres ...string) {
	d.Genres = lo.Uniq(append(d.Genres, genres...))
}

func (d ContentDetails) MarshalJSON() ([]byte, error) {
	type alias ContentDetails
	a := alias(d)
	if len(d.Episodes) > 0 {
		a.EpisodeCount = len(d.Episodes)
	}
	if len(d.Seasons) > 0 {
		a.SeasonCount = len(d.Seasons)
	}
	if a.Episodes == nil {
		a.Episodes = []Episode{}
	}
	if a.Seasons == nil {
		a.Seasons = []Season{}
	}
	if a.Sources == nil {
		a.Sources = []VideoSource{}
	}
	if a.Genres == nil {
		a.Genres = []string{}
	}
	return json.Marshal(a)
}
