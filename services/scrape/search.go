package scrape

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"streamscout/config"
	"streamscout/models"
	"streamscout/services/fetch"
)

// broadMultiplier widens the truncation cap in broad multi-source mode.
const broadMultiplier = 3

// SearchOptions carries a normalized inbound search.
type SearchOptions struct {
	Query  string
	Kind   models.Kind
	Limit  int
	Source string // explicit source id; empty means the per-kind default set
	Broad  bool   // query every adapter and widen the result cap
}

// SearchOutcome is the merged fan-out result plus the ids of adapters that
// produced at least one hit.
type SearchOutcome struct {
	Results     []models.SearchResult
	SourcesUsed []string
}

// Service owns the adapter registry and coordinates fan-out queries.
// Construction takes an immutable configuration snapshot; there is no
// process-wide mutable state.
type Service struct {
	adapters map[string]Adapter
	order    []string            // registry order, for deterministic fan-out
	defaults map[string][]string // kind -> ordered adapter ids
}

// NewService builds adapters for every enabled registry site. Sites
// without an implementation are logged and skipped.
func NewService(settings config.Settings, fetcher *fetch.Client) *Service {
	s := &Service{
		adapters: make(map[string]Adapter),
		defaults: settings.DefaultSources,
	}
	for _, site := range settings.Sites {
		if !site.Enabled {
			continue
		}
		adapter := adapterForSite(site, fetcher)
		if adapter == nil {
			log.Printf("[scrape] no adapter implemented for site %q, skipping", site.ID)
			continue
		}
		s.adapters[adapter.ID()] = adapter
		s.order = append(s.order, adapter.ID())
	}
	log.Printf("[scrape] %d adapter(s) registered", len(s.order))
	return s
}

// adapterForSite maps a registry row onto its implementation.
func adapterForSite(site config.SiteSettings, fetcher *fetch.Client) Adapter {
	switch site.ID {
	case "gogoanime":
		return NewGogoanime(site, fetcher)
	case "sflix":
		return NewSFlix(site, fetcher)
	case "lookmovie":
		return NewLookMovie(site, fetcher)
	}
	return nil
}

// Adapter returns a registered adapter by id.
func (s *Service) Adapter(id string) (Adapter, bool) {
	a, ok := s.adapters[id]
	return a, ok
}

// Adapters returns all registered adapters in registry order.
func (s *Service) Adapters() []Adapter {
	out := make([]Adapter, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.adapters[id])
	}
	return out
}

// selectAdapters resolves which adapters a search should hit.
func (s *Service) selectAdapters(opts SearchOptions) ([]Adapter, error) {
	if opts.Source != "" {
		a, ok := s.adapters[opts.Source]
		if !ok {
			return nil, ErrUnknownSource
		}
		return []Adapter{a}, nil
	}
	if opts.Broad {
		return s.Adapters(), nil
	}

	var selected []Adapter
	seen := make(map[string]struct{})
	appendDefaults := func(kind models.Kind) {
		for _, id := range s.defaults[string(kind)] {
			if _, dup := seen[id]; dup {
				continue
			}
			if a, ok := s.adapters[id]; ok {
				seen[id] = struct{}{}
				selected = append(selected, a)
			}
		}
	}
	switch opts.Kind {
	case models.KindAnime, models.KindMovie, models.KindSeries:
		appendDefaults(opts.Kind)
	default:
		appendDefaults(models.KindAnime)
		appendDefaults(models.KindMovie)
		appendDefaults(models.KindSeries)
	}
	return selected, nil
}

type fanoutResult struct {
	source  string
	results []models.SearchResult
	err     error
}

// Search fans the query out across the selected adapters, isolating every
// branch: a failing or panicking adapter contributes zero results and is
// dropped from SourcesUsed. Branches still pending at the request deadline
// are abandoned and their partial output discarded.
func (s *Service) Search(ctx context.Context, opts SearchOptions) (*SearchOutcome, error) {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	selected, err := s.selectAdapters(opts)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return &SearchOutcome{Results: []models.SearchResult{}, SourcesUsed: []string{}}, nil
	}

	resCh := make(chan fanoutResult, len(selected))
	var wg conc.WaitGroup
	for _, adapter := range selected {
		adapter := adapter
		wg.Go(func() {
			if !servesKind(adapter, opts.Kind) {
				resCh <- fanoutResult{source: adapter.ID(), results: nil}
				return
			}
			var (
				results []models.SearchResult
				callErr error
			)
			start := time.Now()
			recovered := panics.Try(func() {
				results, callErr = adapter.Search(ctx, opts.Query, opts.Limit)
			})
			if recovered != nil {
				log.Printf("[scrape] %s search panicked: %v", adapter.ID(), recovered.Value)
				resCh <- fanoutResult{source: adapter.ID(), err: recovered.AsError()}
				return
			}
			if callErr != nil {
				log.Printf("[scrape] %s search failed: %v", adapter.ID(), callErr)
				resCh <- fanoutResult{source: adapter.ID(), err: callErr}
				return
			}
			log.Printf("[scrape] %s search produced %d result(s) for %q in %s",
				adapter.ID(), len(results), opts.Query, time.Since(start).Round(10*time.Millisecond))
			resCh <- fanoutResult{source: adapter.ID(), results: results}
		})
	}
	// Drain the wait group off the hot path; branch results arrive through
	// the buffered channel so nothing blocks on a slow sibling.
	go wg.WaitAndRecover()

	var (
		merged      []models.SearchResult
		sourcesUsed []string
	)
collect:
	for received := 0; received < len(selected); received++ {
		select {
		case res := <-resCh:
			if res.err != nil {
				continue
			}
			// Tag before merge so provenance survives ranking.
			for i := range res.results {
				if res.results[i].Source == "" {
					res.results[i].Source = res.source
				}
			}
			merged = append(merged, res.results...)
			if len(res.results) > 0 {
				sourcesUsed = append(sourcesUsed, res.source)
			}
		case <-ctx.Done():
			log.Printf("[scrape] deadline reached with %d of %d adapter(s) settled", received, len(selected))
			break collect
		}
	}

	rankResults(merged, opts.Query)

	resultCap := opts.Limit
	if opts.Broad {
		resultCap = opts.Limit * broadMultiplier
	}
	if len(merged) > resultCap {
		merged = merged[:resultCap]
	}
	if merged == nil {
		merged = []models.SearchResult{}
	}
	if sourcesUsed == nil {
		sourcesUsed = []string{}
	}
	return &SearchOutcome{Results: merged, SourcesUsed: sourcesUsed}, nil
}

// rankResults stably orders merged results: titles containing the query
// (case-insensitive) first, then lexical title order.
func rankResults(results []models.SearchResult, query string) {
	q := strings.ToLower(strings.TrimSpace(query))
	sort.SliceStable(results, func(i, j int) bool {
		ti := strings.ToLower(results[i].Title)
		tj := strings.ToLower(results[j].Title)
		mi := strings.Contains(ti, q)
		mj := strings.Contains(tj, q)
		if mi != mj {
			return mi
		}
		return ti < tj
	})
}

// Details dispatches a details lookup to a single adapter.
func (s *Service) Details(ctx context.Context, source, contentID string, kind models.Kind) (*models.ContentDetails, error) {
	a, ok := s.adapters[source]
	if !ok {
		return nil, ErrUnknownSource
	}
	return a.GetDetails(ctx, contentID, kind)
}

// Sources resolves the playable sources for a content item. Episodic
// content needs an episode id; movies resolve through their details.
func (s *Service) Sources(ctx context.Context, source, contentID, episodeID string, kind models.Kind) ([]models.VideoSource, error) {
	a, ok := s.adapters[source]
	if !ok {
		return nil, ErrUnknownSource
	}
	if episodeID != "" {
		return a.GetEpisodeSources(ctx, contentID, episodeID)
	}
	if kind != models.KindMovie {
		return nil, ErrEpisodeRequired
	}
	details, err := a.GetDetails(ctx, contentID, models.KindMovie)
	if err != nil {
		return nil, err
	}
	return details.Sources, nil
}

// DownloadLinks resolves download links when the adapter has the
// capability; otherwise reports supported=false with an empty slice.
func (s *Service) DownloadLinks(ctx context.Context, source, contentID, episodeID string) ([]models.DownloadLink, bool, error) {
	a, ok := s.adapters[source]
	if !ok {
		return nil, false, ErrUnknownSource
	}
	if !a.Capabilities().DownloadLinks {
		return []models.DownloadLink{}, false, nil
	}
	links, err := a.GetDownloadLinks(ctx, contentID, episodeID)
	return links, true, err
}
