package scrape

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"streamscout/models"
)

// fixtureAdapter scripts one adapter's behavior for orchestrator tests.
type fixtureAdapter struct {
	id      string
	kinds   []models.Kind
	results []models.SearchResult
	err     error
	panics  bool
	caps    Capabilities
	details *models.ContentDetails
	sources []models.VideoSource
	links   []models.DownloadLink
}

func (f *fixtureAdapter) ID() string                 { return f.id }
func (f *fixtureAdapter) Name() string               { return f.id }
func (f *fixtureAdapter) Language() string           { return "en" }
func (f *fixtureAdapter) Kinds() []models.Kind       { return f.kinds }
func (f *fixtureAdapter) Capabilities() Capabilities { return f.caps }

func (f *fixtureAdapter) Search(context.Context, string, int) ([]models.SearchResult, error) {
	if f.panics {
		panic("fixture adapter exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fixtureAdapter) GetDetails(context.Context, string, models.Kind) (*models.ContentDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.details, nil
}

func (f *fixtureAdapter) GetEpisodeSources(context.Context, string, string) ([]models.VideoSource, error) {
	return f.sources, nil
}

func (f *fixtureAdapter) GetDownloadLinks(context.Context, string, string) ([]models.DownloadLink, error) {
	return f.links, nil
}

func newFixtureService(defaults map[string][]string, adapters ...*fixtureAdapter) *Service {
	s := &Service{
		adapters: make(map[string]Adapter),
		defaults: defaults,
	}
	for _, a := range adapters {
		s.adapters[a.id] = a
		s.order = append(s.order, a.id)
	}
	return s
}

func titles(results []models.SearchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Title)
	}
	return out
}

func TestSearchMergesAcrossAdapters(t *testing.T) {
	svc := newFixtureService(nil,
		&fixtureAdapter{
			id:    "alpha",
			kinds: []models.Kind{models.KindAnime},
			results: []models.SearchResult{
				{ID: "a1", Title: "Naruto"},
			},
		},
		&fixtureAdapter{
			id:    "beta",
			kinds: []models.Kind{models.KindMovie},
			results: []models.SearchResult{
				{ID: "b1", Title: "Naruto the Movie"},
			},
		},
	)

	outcome, err := svc.Search(context.Background(), SearchOptions{Query: "naruto", Limit: 10, Broad: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcome.Results) != 2 {
		t.Fatalf("expected 2 merged results, got %d", len(outcome.Results))
	}
	if len(outcome.SourcesUsed) != 2 {
		t.Fatalf("expected both sources used, got %v", outcome.SourcesUsed)
	}
	// Provenance tag survives the merge.
	for _, r := range outcome.Results {
		if r.Source == "" {
			t.Fatalf("result %q lost its source tag", r.Title)
		}
	}
}

func TestSearchIsolatesFailingAndPanickingAdapters(t *testing.T) {
	svc := newFixtureService(nil,
		&fixtureAdapter{
			id:      "good",
			kinds:   []models.Kind{models.KindMovie},
			results: []models.SearchResult{{ID: "g1", Title: "The Matrix"}},
		},
		&fixtureAdapter{
			id:    "broken",
			kinds: []models.Kind{models.KindMovie},
			err:   errors.New("site is down"),
		},
		&fixtureAdapter{
			id:     "explosive",
			kinds:  []models.Kind{models.KindMovie},
			panics: true,
		},
	)

	outcome, err := svc.Search(context.Background(), SearchOptions{Query: "matrix", Limit: 10, Broad: true})
	if err != nil {
		t.Fatalf("fan-out must not surface branch failures: %v", err)
	}
	if len(outcome.Results) != 1 || outcome.Results[0].ID != "g1" {
		t.Fatalf("expected the healthy adapter's result, got %+v", outcome.Results)
	}
	if !reflect.DeepEqual(outcome.SourcesUsed, []string{"good"}) {
		t.Fatalf("failing adapters must not appear in sources_used, got %v", outcome.SourcesUsed)
	}
}

// hangingAdapter blocks in Search until the request context is done.
type hangingAdapter struct {
	fixtureAdapter
}

func (h *hangingAdapter) Search(ctx context.Context, _ string, _ int) ([]models.SearchResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSearchAbandonsBranchesStuckPastTheDeadline(t *testing.T) {
	fast := &fixtureAdapter{
		id:      "fast",
		kinds:   []models.Kind{models.KindMovie},
		results: []models.SearchResult{{ID: "f1", Title: "The Matrix"}},
	}
	stuck := &hangingAdapter{fixtureAdapter{
		id:    "stuck",
		kinds: []models.Kind{models.KindMovie},
	}}
	svc := &Service{
		adapters: map[string]Adapter{fast.id: fast, stuck.id: stuck},
		order:    []string{fast.id, stuck.id},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	outcome, err := svc.Search(ctx, SearchOptions{Query: "matrix", Limit: 10, Broad: true})
	if err != nil {
		t.Fatalf("a stuck branch must not fail the request: %v", err)
	}
	if len(outcome.Results) != 1 || outcome.Results[0].ID != "f1" {
		t.Fatalf("expected the settled adapter's result, got %+v", outcome.Results)
	}
	if !reflect.DeepEqual(outcome.SourcesUsed, []string{"fast"}) {
		t.Fatalf("abandoned adapters must not appear in sources_used, got %v", outcome.SourcesUsed)
	}
}

func TestSearchEmptyResultsAreNotAnError(t *testing.T) {
	svc := newFixtureService(nil, &fixtureAdapter{
		id:      "alpha",
		kinds:   []models.Kind{models.KindAnime},
		results: []models.SearchResult{},
	})

	outcome, err := svc.Search(context.Background(), SearchOptions{Query: "nothing matches", Limit: 10, Broad: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Results == nil || len(outcome.Results) != 0 {
		t.Fatalf("expected empty slice, got %#v", outcome.Results)
	}
	if outcome.SourcesUsed == nil || len(outcome.SourcesUsed) != 0 {
		t.Fatalf("adapters with zero hits must not be listed, got %v", outcome.SourcesUsed)
	}
}

func TestSearchRanksMatchingTitlesFirst(t *testing.T) {
	svc := newFixtureService(nil, &fixtureAdapter{
		id:    "alpha",
		kinds: []models.Kind{models.KindMovie},
		results: []models.SearchResult{
			{ID: "1", Title: "Zed"},
			{ID: "2", Title: "The Matrix"},
			{ID: "3", Title: "Another Film"},
			{ID: "4", Title: "Matrix Reloaded"},
		},
	})

	outcome, err := svc.Search(context.Background(), SearchOptions{Query: "matrix", Limit: 10, Broad: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := titles(outcome.Results)
	want := []string{"Matrix Reloaded", "The Matrix", "Another Film", "Zed"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranking order = %v, want %v", got, want)
	}
}

func TestSearchTruncatesToLimit(t *testing.T) {
	many := make([]models.SearchResult, 10)
	for i := range many {
		many[i] = models.SearchResult{ID: string(rune('a' + i)), Title: "Result"}
	}
	svc := newFixtureService(nil, &fixtureAdapter{
		id:      "alpha",
		kinds:   []models.Kind{models.KindAnime},
		results: many,
	})

	outcome, err := svc.Search(context.Background(), SearchOptions{Query: "result", Limit: 3, Source: "alpha"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcome.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(outcome.Results))
	}
}

func TestSearchBroadModeWidensCap(t *testing.T) {
	many := make([]models.SearchResult, 20)
	for i := range many {
		many[i] = models.SearchResult{ID: string(rune('a' + i)), Title: "Result"}
	}
	svc := newFixtureService(nil, &fixtureAdapter{
		id:      "alpha",
		kinds:   []models.Kind{models.KindAnime},
		results: many,
	})

	outcome, err := svc.Search(context.Background(), SearchOptions{Query: "result", Limit: 5, Broad: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcome.Results) != 15 {
		t.Fatalf("broad cap should be limit*3, got %d results", len(outcome.Results))
	}
}

func TestSearchUnknownExplicitSource(t *testing.T) {
	svc := newFixtureService(nil, &fixtureAdapter{id: "alpha", kinds: []models.Kind{models.KindAnime}})

	_, err := svc.Search(context.Background(), SearchOptions{Query: "x", Source: "nope"})
	if !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}

func TestSearchDefaultsSelectByKind(t *testing.T) {
	animeOnly := &fixtureAdapter{
		id:      "animesite",
		kinds:   []models.Kind{models.KindAnime},
		results: []models.SearchResult{{ID: "a", Title: "Bleach"}},
	}
	movieOnly := &fixtureAdapter{
		id:      "moviesite",
		kinds:   []models.Kind{models.KindMovie},
		results: []models.SearchResult{{ID: "m", Title: "Bleach 2018"}},
	}
	defaults := map[string][]string{
		"anime": {"animesite"},
		"movie": {"moviesite"},
	}
	svc := newFixtureService(defaults, animeOnly, movieOnly)

	outcome, err := svc.Search(context.Background(), SearchOptions{Query: "bleach", Kind: models.KindAnime, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(outcome.SourcesUsed, []string{"animesite"}) {
		t.Fatalf("kind-filtered search hit wrong sources: %v", outcome.SourcesUsed)
	}
}

func TestSearchIsIdempotent(t *testing.T) {
	svc := newFixtureService(nil, &fixtureAdapter{
		id:    "alpha",
		kinds: []models.Kind{models.KindAnime},
		results: []models.SearchResult{
			{ID: "1", Title: "Naruto"},
			{ID: "2", Title: "Naruto Shippuden"},
		},
	})
	opts := SearchOptions{Query: "naruto", Limit: 5, Source: "alpha"}

	first, err := svc.Search(context.Background(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Search(context.Background(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same query produced different outcomes:\n%+v\n%+v", first, second)
	}
}

func TestSourcesRequiresEpisodeForEpisodicContent(t *testing.T) {
	svc := newFixtureService(nil, &fixtureAdapter{
		id:    "alpha",
		kinds: []models.Kind{models.KindSeries},
	})

	_, err := svc.Sources(context.Background(), "alpha", "show-1", "", models.KindSeries)
	if !errors.Is(err, ErrEpisodeRequired) {
		t.Fatalf("expected ErrEpisodeRequired, got %v", err)
	}
}

func TestSourcesMovieResolvesThroughDetails(t *testing.T) {
	svc := newFixtureService(nil, &fixtureAdapter{
		id:    "alpha",
		kinds: []models.Kind{models.KindMovie},
		details: &models.ContentDetails{
			Title:   "Some Film",
			Kind:    models.KindMovie,
			Sources: []models.VideoSource{{URL: "https://cdn.example.com/film.m3u8"}},
		},
	})

	sources, err := svc.Sources(context.Background(), "alpha", "film-1", "", models.KindMovie)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sources) != 1 || sources[0].URL != "https://cdn.example.com/film.m3u8" {
		t.Fatalf("unexpected sources %+v", sources)
	}
}

func TestDownloadLinksCapabilityGate(t *testing.T) {
	svc := newFixtureService(nil,
		&fixtureAdapter{
			id:    "withdl",
			kinds: []models.Kind{models.KindAnime},
			caps:  Capabilities{DownloadLinks: true},
			links: []models.DownloadLink{{URL: "https://dl.example.com/ep1.mp4"}},
		},
		&fixtureAdapter{
			id:    "withoutdl",
			kinds: []models.Kind{models.KindMovie},
		},
	)

	links, supported, err := svc.DownloadLinks(context.Background(), "withdl", "c1", "e1")
	if err != nil || !supported || len(links) != 1 {
		t.Fatalf("capable adapter: links=%v supported=%v err=%v", links, supported, err)
	}

	links, supported, err = svc.DownloadLinks(context.Background(), "withoutdl", "c1", "e1")
	if err != nil {
		t.Fatalf("unsupported capability must not error: %v", err)
	}
	if supported {
		t.Fatalf("expected supported=false")
	}
	if links == nil || len(links) != 0 {
		t.Fatalf("expected empty slice, got %#v", links)
	}
}

func TestDetailsUnknownSource(t *testing.T) {
	svc := newFixtureService(nil)
	_, err := svc.Details(context.Background(), "ghost", "id", models.KindMovie)
	if !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}
