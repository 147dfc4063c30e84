package scrape

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"streamscout/config"
	"streamscout/models"
	"streamscout/services/fetch"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func htmlResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func statusResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func testFetcher(rt roundTripFunc) *fetch.Client {
	return fetch.NewClient(config.FetchSettings{}, &http.Client{Transport: rt})
}

func gogoanimeSite() config.SiteSettings {
	return config.SiteSettings{
		ID:          "gogoanime",
		Name:        "Gogoanime",
		BaseURL:     "https://anitaku.to",
		Kinds:       []string{"anime"},
		Languages:   []string{"en"},
		Enabled:     true,
		SearchPath:  "/search.html?keyword={query}",
		DetailsPath: "/category/{id}",
	}
}

const gogoanimeSearchHTML = `
<html><body>
<ul class="items">
  <li>
    <div class="img">
      <a href="/category/naruto" title="Naruto">
        <img src="https://img.example.com/naruto.jpg" alt="Naruto">
      </a>
    </div>
  </li>
  <li>
    <div class="img">
      <a href="/category/naruto-shippuden" title="Naruto Shippuden">
        <img src="https://img.example.com/shippuden.jpg" alt="Naruto Shippuden">
      </a>
    </div>
  </li>
</ul>
</body></html>`

func TestGogoanimeSearchParsesResultGrid(t *testing.T) {
	adapter := NewGogoanime(gogoanimeSite(), testFetcher(func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.RawQuery, "keyword=naruto") {
			t.Fatalf("unexpected search url %s", req.URL)
		}
		return htmlResponse(gogoanimeSearchHTML), nil
	}))

	results, err := adapter.Search(context.Background(), "naruto", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	first := results[0]
	if first.ID != "naruto" {
		t.Fatalf("id not derived from href: %q", first.ID)
	}
	if first.Title != "Naruto" {
		t.Fatalf("unexpected title %q", first.Title)
	}
	if first.URL != "https://anitaku.to/category/naruto" {
		t.Fatalf("href not absolutized: %q", first.URL)
	}
	if first.Kind != models.KindAnime || first.Source != "gogoanime" {
		t.Fatalf("unexpected tagging %+v", first)
	}
}

func TestGogoanimeSearchHonorsLimit(t *testing.T) {
	adapter := NewGogoanime(gogoanimeSite(), testFetcher(func(*http.Request) (*http.Response, error) {
		return htmlResponse(gogoanimeSearchHTML), nil
	}))

	results, err := adapter.Search(context.Background(), "naruto", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

const gogoanimeDetailHTML = `
<html><body>
<div class="anime_info_body">
  <img src="https://img.example.com/naruto.jpg">
  <h1>Naruto</h1>
  <p class="type">Released: 2002</p>
  <p class="type">Status: Completed</p>
</div>
<div class="description">A young ninja seeks recognition.</div>
<a href="/genre/action">Action</a>
<a href="/genre/adventure">Adventure</a>
<input type="hidden" id="movie_id" value="42">
</body></html>`

const gogoanimeEpisodeListHTML = `
<ul>
  <li><a class="active" href="/naruto-episode-2"><div class="name">EP 2</div></a></li>
  <li><a class="active" href="/naruto-episode-1"><div class="name">EP 1</div></a></li>
</ul>`

func TestGogoanimeDetailsResolvesEpisodesThroughAjax(t *testing.T) {
	adapter := NewGogoanime(gogoanimeSite(), testFetcher(func(req *http.Request) (*http.Response, error) {
		switch {
		case req.URL.Host == "ajax.gogocdn.net":
			if !strings.Contains(req.URL.RawQuery, "id=42") {
				t.Fatalf("episode list fetched with wrong series id: %s", req.URL)
			}
			return htmlResponse(gogoanimeEpisodeListHTML), nil
		case strings.HasPrefix(req.URL.Path, "/category/"):
			return htmlResponse(gogoanimeDetailHTML), nil
		default:
			t.Fatalf("unexpected request %s", req.URL)
			return nil, nil
		}
	}))

	details, err := adapter.GetDetails(context.Background(), "naruto", models.KindAnime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.Title != "Naruto" {
		t.Fatalf("unexpected title %q", details.Title)
	}
	if details.ReleaseYear != "2002" {
		t.Fatalf("unexpected year %q", details.ReleaseYear)
	}
	if details.Status != models.StatusCompleted {
		t.Fatalf("unexpected status %q", details.Status)
	}
	if len(details.Genres) != 2 {
		t.Fatalf("unexpected genres %v", details.Genres)
	}
	if details.PrimaryBranch() != "episodes" {
		t.Fatalf("anime details must populate the episodes branch, got %q", details.PrimaryBranch())
	}
	if len(details.Episodes) != 2 || details.EpisodeCount != 2 {
		t.Fatalf("unexpected episode list %+v", details.Episodes)
	}
	// Newest-first ajax listing comes back 1-based in airing order.
	if details.Episodes[0].Number != 1 || details.Episodes[0].ID != "naruto-episode-1" {
		t.Fatalf("episode ordering wrong: %+v", details.Episodes[0])
	}
	if details.Episodes[1].Number != 2 {
		t.Fatalf("episode ordering wrong: %+v", details.Episodes[1])
	}
}

func TestGogoanimeDetailsMissingTitleIsNotFound(t *testing.T) {
	adapter := NewGogoanime(gogoanimeSite(), testFetcher(func(*http.Request) (*http.Response, error) {
		return htmlResponse("<html><body><p>nothing here</p></body></html>"), nil
	}))

	_, err := adapter.GetDetails(context.Background(), "ghost", models.KindAnime)
	if err != fetch.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

const gogoanimeEpisodeHTML = `
<html><body>
<div class="play-video">
  <iframe src="//mixdrop.co/e/embed1"></iframe>
  <iframe src="https://player.unknown-host.com/v/99"></iframe>
</div>
<script>
  jwplayer().setup({ file: "https://cdn.example.com/ep1/index.m3u8" });
</script>
</body></html>`

func TestGogoanimeEpisodeSourcesClassifyEmbeds(t *testing.T) {
	adapter := NewGogoanime(gogoanimeSite(), testFetcher(func(*http.Request) (*http.Response, error) {
		return htmlResponse(gogoanimeEpisodeHTML), nil
	}))

	sources, err := adapter.GetEpisodeSources(context.Background(), "naruto", "naruto-episode-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sources) != 3 {
		t.Fatalf("expected 3 sources, got %d: %+v", len(sources), sources)
	}
	if sources[0].Kind != models.SourceMixdrop || sources[0].URL != "https://mixdrop.co/e/embed1" {
		t.Fatalf("mixdrop embed misclassified: %+v", sources[0])
	}
	if sources[1].Kind != models.SourceIframe {
		t.Fatalf("unknown host must fall back to iframe: %+v", sources[1])
	}
	if sources[2].Kind != models.SourceHLS || !sources[2].IsPlaylist {
		t.Fatalf("script manifest misclassified: %+v", sources[2])
	}
}

func TestGogoanimeEpisodeSourcesFetchFailureIsEmpty(t *testing.T) {
	adapter := NewGogoanime(gogoanimeSite(), testFetcher(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(bytes.NewBufferString("bad gateway")),
			Header:     make(http.Header),
		}, nil
	}))

	sources, err := adapter.GetEpisodeSources(context.Background(), "naruto", "naruto-episode-1")
	if err != nil {
		t.Fatalf("broken link chain must not error: %v", err)
	}
	if sources == nil || len(sources) != 0 {
		t.Fatalf("expected empty slice, got %#v", sources)
	}
}

func TestGogoanimeDownloadLinks(t *testing.T) {
	const episodeHTML = `
<html><body>
<li class="dowloads">
  <a href="https://files.example.com/download?id=1&q=1080">Download 1080p</a>
</li>
<div class="favorites_book">
  <a href="/category/naruto">Bookmark</a>
</div>
</body></html>`
	adapter := NewGogoanime(gogoanimeSite(), testFetcher(func(*http.Request) (*http.Response, error) {
		return htmlResponse(episodeHTML), nil
	}))

	links, err := adapter.GetDownloadLinks(context.Background(), "naruto", "naruto-episode-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 download link, got %d: %+v", len(links), links)
	}
	if links[0].Quality != models.Quality1080 {
		t.Fatalf("quality not parsed from label: %+v", links[0])
	}
}
