package scrape

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"streamscout/config"
	"streamscout/models"
	"streamscout/services/embed"
	"streamscout/services/fetch"
	"streamscout/utils/text"
)

// maxSeasonFetches bounds the per-season episode resolution so a
// malformed dropdown can never trigger unbounded recursion.
const maxSeasonFetches = 25

// ajaxFragment is the JSON wrapper SFlix's ajax endpoints use: an HTML
// fragment under "data".
type ajaxFragment struct {
	Data string `json:"data"`
}

// sflixSourcePayload is the per-server source listing.
type sflixSourcePayload struct {
	Data []struct {
		Link string `json:"link"`
	} `json:"data"`
}

// SFlix scrapes the SFlix movie/series catalog. Search and detail pages
// are HTML; seasons, episodes and server lists arrive as ajax HTML
// fragments; per-server sources are JSON.
type SFlix struct {
	site    config.SiteSettings
	fetcher *fetch.Client
	ajaxURL string
}

func NewSFlix(site config.SiteSettings, fetcher *fetch.Client) *SFlix {
	return &SFlix{
		site:    site,
		fetcher: fetcher,
		ajaxURL: strings.TrimRight(site.BaseURL, "/") + "/ajax",
	}
}

func (s *SFlix) ID() string           { return s.site.ID }
func (s *SFlix) Name() string         { return s.site.Name }
func (s *SFlix) Language() string     { return firstOr(s.site.Languages, "en") }
func (s *SFlix) Kinds() []models.Kind { return siteKinds(s.site.Kinds) }

func (s *SFlix) Capabilities() Capabilities { return Capabilities{} }

func (s *SFlix) fetchOptions() fetch.Options {
	return fetch.Options{Headers: s.site.Headers, Protected: s.site.Protected}
}

func (s *SFlix) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	// The search endpoint takes the query as a path segment, so it goes in
	// pre-normalized: lowercased, specials stripped, spaces joined with "+".
	// NormalizeQuery output is already URL-safe and substitutes verbatim.
	searchURL := strings.TrimRight(s.site.BaseURL, "/") +
		strings.ReplaceAll(s.site.SearchPath, "{query}", text.NormalizeQuery(query))
	body, err := s.fetcher.Fetch(ctx, searchURL, s.fetchOptions())
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.Printf("[sflix] search parse failed: %v", err)
		return []models.SearchResult{}, nil
	}

	results := []models.SearchResult{}
	doc.Find("div.flw-item").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.film-poster-ahref").First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return true
		}
		img := sel.Find("img").First()
		title := text.CleanTitle(sel.Find("h2.film-name").First().Text())
		if title == "" {
			title = text.CleanTitle(img.AttrOr("alt", ""))
		}
		kind := models.KindSeries
		if strings.Contains(href, "/movie/") {
			kind = models.KindMovie
		}
		poster := img.AttrOr("data-src", img.AttrOr("src", ""))
		results = append(results, models.SearchResult{
			ID:     idFromHref(href),
			Title:  title,
			URL:    absoluteURL(s.site.BaseURL, href),
			Poster: poster,
			Kind:   kind,
			Source: s.site.ID,
		})
		return len(results) < limit
	})
	return results, nil
}

func (s *SFlix) GetDetails(ctx context.Context, contentID string, kind models.Kind) (*models.ContentDetails, error) {
	if kind != models.KindSeries {
		kind = models.KindMovie
	}
	detailURL := endpointURL(s.site.BaseURL, s.site.DetailsPath, map[string]string{
		"kind": string(kind),
		"id":   contentID,
	})
	body, err := s.fetcher.Fetch(ctx, detailURL, s.fetchOptions())
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fetch.ErrNotFound
	}

	title := text.CleanTitle(doc.Find("h2.film-name").First().Text())
	if title == "" {
		return nil, fetch.ErrNotFound
	}

	img := doc.Find("img.film-poster-img").First()
	details := &models.ContentDetails{
		Title:       title,
		ID:          contentID,
		Kind:        kind,
		Description: text.Clean(doc.Find("div.film-description").First().Text()),
		Poster:      img.AttrOr("data-src", img.AttrOr("src", "")),
		Language:    s.Language(),
		Status:      models.StatusUnknown,
		SourceSite:  s.site.ID,
		SourceURL:   detailURL,
		ScrapedAt:   time.Now().UTC(),
	}

	doc.Find(`a[href*="/genre/"]`).Each(func(_ int, sel *goquery.Selection) {
		if genre := text.Clean(sel.Text()); genre != "" {
			details.AddGenres(genre)
		}
	})

	if elements := doc.Find("div.elements").First(); elements.Length() > 0 {
		elementsText := elements.Text()
		details.ReleaseYear = text.ExtractYear(elementsText)
		if strings.Contains(strings.ToLower(elementsText), "min") {
			details.Duration = text.ParseDuration(elementsText)
		}
	}

	if kind == models.KindSeries {
		details.Seasons = s.fetchSeasons(ctx, contentID)
		details.SeasonCount = len(details.Seasons)
	} else {
		details.Sources = s.movieSources(ctx, contentID)
	}
	return details, nil
}

// fetchSeasons resolves the season dropdown, then the episode list for
// each season. Fetch failures midway leave a partial season list.
func (s *SFlix) fetchSeasons(ctx context.Context, seriesID string) []models.Season {
	var fragment ajaxFragment
	listURL := fmt.Sprintf("%s/season/list/%s", s.ajaxURL, seriesID)
	if err := s.fetcher.FetchJSON(ctx, listURL, s.fetchOptions(), &fragment); err != nil {
		log.Printf("[sflix] season list fetch failed for %s: %v", seriesID, err)
		return []models.Season{}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment.Data))
	if err != nil {
		return []models.Season{}
	}

	seasons := []models.Season{}
	doc.Find("a.dropdown-item").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= maxSeasonFetches {
			return false
		}
		seasonID := sel.AttrOr("data-id", "")
		if seasonID == "" {
			return true
		}
		episodes := s.fetchSeasonEpisodes(ctx, seasonID)
		seasons = append(seasons, models.Season{
			Number:       i + 1,
			Title:        text.Clean(sel.Text()),
			ID:           seasonID,
			Episodes:     episodes,
			EpisodeCount: len(episodes),
		})
		return true
	})
	return seasons
}

func (s *SFlix) fetchSeasonEpisodes(ctx context.Context, seasonID string) []models.Episode {
	var fragment ajaxFragment
	episodesURL := fmt.Sprintf("%s/season/episodes/%s", s.ajaxURL, seasonID)
	if err := s.fetcher.FetchJSON(ctx, episodesURL, s.fetchOptions(), &fragment); err != nil {
		log.Printf("[sflix] episode list fetch failed for season %s: %v", seasonID, err)
		return []models.Episode{}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment.Data))
	if err != nil {
		return []models.Episode{}
	}

	episodes := []models.Episode{}
	doc.Find("a.episode-item").Each(func(_ int, sel *goquery.Selection) {
		number := 0
		if raw := text.Clean(sel.Find("span.episode-number").First().Text()); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				number = n
			}
		}
		episodes = append(episodes, models.Episode{
			Number:  number,
			Title:   text.Clean(sel.AttrOr("title", "")),
			ID:      sel.AttrOr("data-id", ""),
			Sources: []models.VideoSource{},
		})
	})
	return episodes
}

// movieSources walks the server list then each server's source endpoint.
// Any broken link in the chain skips that server only.
func (s *SFlix) movieSources(ctx context.Context, movieID string) []models.VideoSource {
	return s.resolveServers(ctx,
		fmt.Sprintf("%s/movie/servers/%s", s.ajaxURL, movieID),
		fmt.Sprintf("%s/movie/sources/", s.ajaxURL))
}

func (s *SFlix) GetEpisodeSources(ctx context.Context, _ string, episodeID string) ([]models.VideoSource, error) {
	sources := s.resolveServers(ctx,
		fmt.Sprintf("%s/episode/servers/%s", s.ajaxURL, episodeID),
		fmt.Sprintf("%s/episode/sources/", s.ajaxURL))
	return sources, nil
}

func (s *SFlix) resolveServers(ctx context.Context, serversURL, sourceURLPrefix string) []models.VideoSource {
	var fragment ajaxFragment
	if err := s.fetcher.FetchJSON(ctx, serversURL, s.fetchOptions(), &fragment); err != nil {
		log.Printf("[sflix] server list fetch failed: %v", err)
		return []models.VideoSource{}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment.Data))
	if err != nil {
		return []models.VideoSource{}
	}

	sources := []models.VideoSource{}
	doc.Find("a.server-item").Each(func(_ int, sel *goquery.Selection) {
		serverID := sel.AttrOr("data-id", "")
		if serverID == "" {
			return
		}
		var payload sflixSourcePayload
		if err := s.fetcher.FetchJSON(ctx, sourceURLPrefix+serverID, s.fetchOptions(), &payload); err != nil {
			log.Printf("[sflix] source fetch failed for server %s: %v", serverID, err)
			return
		}
		for _, item := range payload.Data {
			if item.Link == "" {
				continue
			}
			link := embed.NormalizeScheme(item.Link)
			kind := models.SourceDirect
			if models.PlaylistURL(link) {
				kind = models.SourceHLS
			}
			source := models.NewVideoSource(link, kind, s.site.BaseURL)
			source.Language = s.Language()
			sources = append(sources, source)
		}
	})
	return sources
}

func (s *SFlix) GetDownloadLinks(context.Context, string, string) ([]models.DownloadLink, error) {
	return []models.DownloadLink{}, nil
}
