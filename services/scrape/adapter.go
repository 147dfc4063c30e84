// Package scrape defines the site adapter contract and the aggregation
// service that fans queries out across adapters.
package scrape

import (
	"context"
	"errors"
	"strings"

	"streamscout/models"
)

// ErrUnknownSource is the one caller-input error: a single-adapter lookup
// named a source id that is not registered.
var ErrUnknownSource = errors.New("unknown source")

// ErrEpisodeRequired is returned when a sources lookup on episodic content
// arrives without an episode id.
var ErrEpisodeRequired = errors.New("episode id required for episodic content")

// Capabilities flags the optional operations an adapter supports. Checked
// explicitly before invocation; unsupported operations return empty
// results, never errors.
type Capabilities struct {
	DownloadLinks bool
}

// Adapter is a source-specific implementation of the fixed capability set.
// Implementations hold only static configuration between calls and must be
// safe for concurrent reuse across requests.
type Adapter interface {
	ID() string
	Name() string
	Language() string
	Kinds() []models.Kind
	Capabilities() Capabilities

	// Search returns up to limit results for a query. No matches is an
	// empty slice, never an error.
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)

	// GetDetails resolves the canonical detail resource for a content id.
	// Absence is fetch.ErrNotFound.
	GetDetails(ctx context.Context, contentID string, kind models.Kind) (*models.ContentDetails, error)

	// GetEpisodeSources resolves playable sources for one episode. Link
	// failures along the fetch chain yield a partial, possibly empty,
	// result.
	GetEpisodeSources(ctx context.Context, contentID, episodeID string) ([]models.VideoSource, error)

	// GetDownloadLinks is optional; adapters without the capability return
	// an empty slice.
	GetDownloadLinks(ctx context.Context, contentID, episodeID string) ([]models.DownloadLink, error)
}

// servesKind reports whether an adapter covers a content kind. KindAll
// matches everything.
func servesKind(a Adapter, kind models.Kind) bool {
	if kind == models.KindAll || kind == "" {
		return true
	}
	for _, k := range a.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// siteKinds parses the registry's kind strings.
func siteKinds(raw []string) []models.Kind {
	kinds := make([]models.Kind, 0, len(raw))
	for _, s := range raw {
		kinds = append(kinds, models.ParseKind(strings.TrimSpace(s)))
	}
	return kinds
}
