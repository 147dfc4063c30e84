package config

import (
	"golang.org/x/text/language"
)

// DefaultSettings returns the configuration written on first run. The site
// registry covers the catalogs this build ships adapters for, plus known
// sites kept disabled until an adapter lands.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Fetch: FetchSettings{
			TimeoutSeconds:        30,
			RequestTimeoutSeconds: 45,
			MaxConcurrent:         8,
			ChallengeSlots:        2,
			RetryAttempts:         3,
			RetryDelayMs:          1000,
		},
		Sites:          defaultSites(),
		DefaultSources: defaultSourceSets(),
		Log: LogSettings{
			File:       "",
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 14,
			Level:      "info",
		},
	}
}

func defaultSites() []SiteSettings {
	return []SiteSettings{
		{
			ID:          "gogoanime",
			Name:        "Gogoanime",
			BaseURL:     "https://anitaku.to",
			Kinds:       []string{"anime"},
			Languages:   []string{"en"},
			Enabled:     true,
			SearchPath:  "/search.html?keyword={query}",
			DetailsPath: "/category/{id}",
		},
		{
			ID:          "zoro",
			Name:        "Zoro/AniWatch",
			BaseURL:     "https://aniwatch.to",
			Kinds:       []string{"anime"},
			Languages:   []string{"en", "ja"},
			Enabled:     false,
			Protected:   true,
			SearchPath:  "/search?keyword={query}",
			DetailsPath: "/anime/{id}",
		},
		{
			ID:          "sflix",
			Name:        "SFlix",
			BaseURL:     "https://sflix.to",
			Kinds:       []string{"movie", "series"},
			Languages:   []string{"en"},
			Enabled:     true,
			Protected:   true,
			SearchPath:  "/search/{query}",
			DetailsPath: "/{kind}/{id}",
		},
		{
			ID:          "fmovies",
			Name:        "FMovies",
			BaseURL:     "https://fmovies.to",
			Kinds:       []string{"movie", "series"},
			Languages:   []string{"en"},
			Enabled:     false,
			Protected:   true,
			SearchPath:  "/search?keyword={query}",
			DetailsPath: "/{kind}/{id}",
		},
		{
			ID:          "lookmovie",
			Name:        "LookMovie",
			BaseURL:     "https://lookmovie2.to",
			Kinds:       []string{"movie", "series"},
			Languages:   []string{"en"},
			Enabled:     true,
			Protected:   true,
			APIBased:    true,
			SearchPath:  "/api/v1/movies/search/?q={query}",
			DetailsPath: "/api/v1/movies/view/{id}",
		},
		{
			ID:          "voiranime",
			Name:        "VoirAnime",
			BaseURL:     "https://v6.voiranime.com",
			Kinds:       []string{"anime"},
			Languages:   []string{"fr"},
			Enabled:     false,
			Protected:   true,
			SearchPath:  "/?s={query}",
			DetailsPath: "/anime/{id}",
		},
	}
}

// defaultSourceSets maps a content kind to the ordered adapter ids tried
// when the caller does not pin a source.
func defaultSourceSets() map[string][]string {
	return map[string][]string{
		"anime":  {"gogoanime"},
		"movie":  {"sflix", "lookmovie"},
		"series": {"sflix", "lookmovie"},
	}
}

// normalizeLanguages canonicalizes registry language tags ("EN" and
// "en-US" both become "en"); unparseable tags pass through untouched so a
// hand-edited file never breaks startup.
func normalizeLanguages(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		tag, err := language.Parse(raw)
		if err != nil {
			out = append(out, raw)
			continue
		}
		base, conf := tag.Base()
		if conf == language.No {
			out = append(out, raw)
			continue
		}
		out = append(out, base.String())
	}
	return out
}
