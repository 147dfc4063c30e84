package scrape

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"streamscout/config"
	"streamscout/models"
	"streamscout/services/fetch"
	"streamscout/utils/text"
)

type lookMovieSearchPayload struct {
	Results []lookMovieItem `json:"results"`
}

type lookMovieItem struct {
	ID     any    `json:"id"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Poster string `json:"poster"`
	Year   any    `json:"year"`
}

type lookMovieViewPayload struct {
	Data lookMovieView `json:"data"`
}

type lookMovieView struct {
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Description string            `json:"description"`
	Poster      string            `json:"poster"`
	Background  string            `json:"background"`
	Year        any               `json:"year"`
	Duration    any               `json:"duration"`
	Rating      any               `json:"rating"`
	Genres      []string          `json:"genres"`
	Seasons     []lookMovieSeason `json:"seasons"`
}

type lookMovieSeason struct {
	ID           any                `json:"id"`
	SeasonNumber int                `json:"season_number"`
	Title        string             `json:"title"`
	Episodes     []lookMovieEpisode `json:"episodes"`
}

type lookMovieEpisode struct {
	ID            any    `json:"id"`
	EpisodeNumber int    `json:"episode_number"`
	Title         string `json:"title"`
}

// LookMovie is a pure API adapter: every endpoint returns JSON, no DOM
// parsing involved.
type LookMovie struct {
	site    config.SiteSettings
	fetcher *fetch.Client
}

func NewLookMovie(site config.SiteSettings, fetcher *fetch.Client) *LookMovie {
	return &LookMovie{site: site, fetcher: fetcher}
}

func (l *LookMovie) ID() string           { return l.site.ID }
func (l *LookMovie) Name() string         { return l.site.Name }
func (l *LookMovie) Language() string     { return firstOr(l.site.Languages, "en") }
func (l *LookMovie) Kinds() []models.Kind { return siteKinds(l.site.Kinds) }

func (l *LookMovie) Capabilities() Capabilities { return Capabilities{} }

func (l *LookMovie) fetchOptions() fetch.Options {
	return fetch.Options{Headers: l.site.Headers, Protected: l.site.Protected}
}

func (l *LookMovie) apiURL(path string) string {
	return endpointURL(l.site.BaseURL, path, nil)
}

func (l *LookMovie) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	escaped := url.QueryEscape(query)
	results := []models.SearchResult{}

	var movies lookMovieSearchPayload
	moviesURL := l.apiURL("/api/v1/movies/search/?q=" + escaped)
	if err := l.fetcher.FetchJSONWithRetry(ctx, moviesURL, l.fetchOptions(), &movies); err != nil {
		return nil, err
	}
	for _, item := range movies.Results {
		if len(results) >= limit {
			break
		}
		results = append(results, l.searchResult(item, models.KindMovie))
	}

	// Shows live on a parallel endpoint; a failure there still returns the
	// movie hits.
	var shows lookMovieSearchPayload
	showsURL := l.apiURL("/api/v1/shows/search/?q=" + escaped)
	if err := l.fetcher.FetchJSONWithRetry(ctx, showsURL, l.fetchOptions(), &shows); err != nil {
		log.Printf("[lookmovie] shows search failed: %v", err)
		return results, nil
	}
	for _, item := range shows.Results {
		if len(results) >= limit {
			break
		}
		results = append(results, l.searchResult(item, models.KindSeries))
	}
	return results, nil
}

func (l *LookMovie) searchResult(item lookMovieItem, kind models.Kind) models.SearchResult {
	section := "movies"
	if kind == models.KindSeries {
		section = "shows"
	}
	return models.SearchResult{
		ID:     anyToString(item.ID),
		Title:  text.CleanTitle(item.Title),
		URL:    fmt.Sprintf("%s/%s/view/%s", l.site.BaseURL, section, item.Slug),
		Poster: item.Poster,
		Kind:   kind,
		Source: l.site.ID,
		Year:   anyToString(item.Year),
	}
}

func (l *LookMovie) GetDetails(ctx context.Context, contentID string, kind models.Kind) (*models.ContentDetails, error) {
	if kind == models.KindSeries {
		return l.showDetails(ctx, contentID)
	}
	return l.movieDetails(ctx, contentID)
}

func (l *LookMovie) movieDetails(ctx context.Context, movieID string) (*models.ContentDetails, error) {
	var payload lookMovieViewPayload
	viewURL := l.apiURL("/api/v1/movies/view/" + movieID)
	if err := l.fetcher.FetchJSONWithRetry(ctx, viewURL, l.fetchOptions(), &payload); err != nil {
		return nil, err
	}
	if payload.Data.Title == "" {
		return nil, fetch.ErrNotFound
	}

	details := l.baseDetails(payload.Data, movieID, models.KindMovie, "movies")
	if d := anyToString(payload.Data.Duration); d != "" {
		details.Duration = d + " min"
	}
	// The playable stream sits behind an expiring access token resolved at
	// watch time; the catalog API exposes the player page only.
	playerURL := fmt.Sprintf("%s/movies/play/%s", l.site.BaseURL, payload.Data.Slug)
	source := models.NewVideoSource(playerURL, models.SourceIframe, l.site.BaseURL)
	source.Language = l.Language()
	details.Sources = []models.VideoSource{source}
	return details, nil
}

func (l *LookMovie) showDetails(ctx context.Context, showID string) (*models.ContentDetails, error) {
	var payload lookMovieViewPayload
	viewURL := l.apiURL("/api/v1/shows/view/" + showID)
	if err := l.fetcher.FetchJSONWithRetry(ctx, viewURL, l.fetchOptions(), &payload); err != nil {
		return nil, err
	}
	if payload.Data.Title == "" {
		return nil, fetch.ErrNotFound
	}

	details := l.baseDetails(payload.Data, showID, models.KindSeries, "shows")
	for _, season := range payload.Data.Seasons {
		episodes := make([]models.Episode, 0, len(season.Episodes))
		for _, ep := range season.Episodes {
			title := ep.Title
			if title == "" {
				title = fmt.Sprintf("Episode %d", ep.EpisodeNumber)
			}
			episodes = append(episodes, models.Episode{
				Number:  ep.EpisodeNumber,
				Title:   title,
				ID:      anyToString(ep.ID),
				Sources: []models.VideoSource{},
			})
		}
		title := season.Title
		if title == "" {
			title = fmt.Sprintf("Season %d", season.SeasonNumber)
		}
		details.Seasons = append(details.Seasons, models.Season{
			Number:       season.SeasonNumber,
			Title:        title,
			ID:           anyToString(season.ID),
			Episodes:     episodes,
			EpisodeCount: len(episodes),
		})
	}
	details.SeasonCount = len(details.Seasons)
	return details, nil
}

func (l *LookMovie) baseDetails(view lookMovieView, id string, kind models.Kind, section string) *models.ContentDetails {
	details := &models.ContentDetails{
		Title:       text.CleanTitle(view.Title),
		ID:          id,
		Kind:        kind,
		Description: view.Description,
		Poster:      view.Poster,
		Banner:      view.Background,
		Rating:      anyToString(view.Rating),
		ReleaseYear: anyToString(view.Year),
		Language:    l.Language(),
		Status:      models.StatusUnknown,
		SourceSite:  l.site.ID,
		SourceURL:   fmt.Sprintf("%s/%s/view/%s", l.site.BaseURL, section, view.Slug),
		ScrapedAt:   time.Now().UTC(),
	}
	details.AddGenres(view.Genres...)
	return details
}

func (l *LookMovie) GetEpisodeSources(ctx context.Context, _ string, episodeID string) ([]models.VideoSource, error) {
	if episodeID == "" {
		return []models.VideoSource{}, nil
	}
	playerURL := fmt.Sprintf("%s/shows/play-episode/%s", l.site.BaseURL, episodeID)
	source := models.NewVideoSource(playerURL, models.SourceIframe, l.site.BaseURL)
	source.Language = l.Language()
	return []models.VideoSource{source}, nil
}

func (l *LookMovie) GetDownloadLinks(context.Context, string, string) ([]models.DownloadLink, error) {
	return []models.DownloadLink{}, nil
}

// anyToString renders the loosely-typed id/year fields this API returns
// as either numbers or strings.
func anyToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	}
	return fmt.Sprintf("%v", v)
}
