package scrape

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"streamscout/config"
	"streamscout/models"
	"streamscout/services/embed"
	"streamscout/services/fetch"
	"streamscout/utils/text"
)

const gogoanimeAjaxBaseURL = "https://ajax.gogocdn.net/ajax"

var (
	gogoReleasedRe = regexp.MustCompile(`Released:\s*(\d{4})`)
	gogoStatusRe   = regexp.MustCompile(`Status:\s*(\w+)`)
	gogoMovieIDRe  = regexp.MustCompile(`movie_id\s*=\s*["']?(\d+)`)
)

// Gogoanime scrapes the Gogoanime/Anitaku catalog. Episode lists come from
// the gogocdn ajax endpoint; episode pages expose embeds as iframes plus
// inline player scripts.
type Gogoanime struct {
	site    config.SiteSettings
	fetcher *fetch.Client
	ajaxURL string
}

func NewGogoanime(site config.SiteSettings, fetcher *fetch.Client) *Gogoanime {
	return &Gogoanime{site: site, fetcher: fetcher, ajaxURL: gogoanimeAjaxBaseURL}
}

func (g *Gogoanime) ID() string           { return g.site.ID }
func (g *Gogoanime) Name() string         { return g.site.Name }
func (g *Gogoanime) Language() string     { return firstOr(g.site.Languages, "en") }
func (g *Gogoanime) Kinds() []models.Kind { return siteKinds(g.site.Kinds) }

func (g *Gogoanime) Capabilities() Capabilities {
	return Capabilities{DownloadLinks: true}
}

func (g *Gogoanime) fetchOptions() fetch.Options {
	return fetch.Options{Headers: g.site.Headers, Protected: g.site.Protected}
}

func (g *Gogoanime) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	searchURL := endpointURL(g.site.BaseURL, g.site.SearchPath, map[string]string{"query": query})
	body, err := g.fetcher.Fetch(ctx, searchURL, g.fetchOptions())
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		// Unexpected content shape downgrades to an empty result.
		log.Printf("[gogoanime] search parse failed: %v", err)
		return []models.SearchResult{}, nil
	}

	results := []models.SearchResult{}
	doc.Find("div.img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a").First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return true
		}
		img := link.Find("img").First()
		title, _ := img.Attr("alt")
		if title == "" {
			title, _ = link.Attr("title")
		}
		poster, _ := img.Attr("src")
		results = append(results, models.SearchResult{
			ID:     idFromHref(href),
			Title:  text.CleanTitle(title),
			URL:    absoluteURL(g.site.BaseURL, href),
			Poster: poster,
			Kind:   models.KindAnime,
			Source: g.site.ID,
		})
		return len(results) < limit
	})
	return results, nil
}

func (g *Gogoanime) GetDetails(ctx context.Context, contentID string, _ models.Kind) (*models.ContentDetails, error) {
	detailURL := endpointURL(g.site.BaseURL, g.site.DetailsPath, map[string]string{"id": contentID})
	body, err := g.fetcher.Fetch(ctx, detailURL, g.fetchOptions())
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fetch.ErrNotFound
	}

	info := doc.Find("div.anime_info_body").First()
	title := text.CleanTitle(info.Find("h1").First().Text())
	if title == "" {
		return nil, fetch.ErrNotFound
	}
	poster, _ := info.Find("img").First().Attr("src")
	description := text.Clean(doc.Find("div.description").First().Text())

	details := &models.ContentDetails{
		Title:       title,
		ID:          contentID,
		Kind:        models.KindAnime,
		Description: description,
		Poster:      poster,
		Language:    g.Language(),
		Status:      models.StatusUnknown,
		SourceSite:  g.site.ID,
		SourceURL:   detailURL,
		ScrapedAt:   time.Now().UTC(),
	}

	doc.Find(`a[href*="/genre/"]`).Each(func(_ int, sel *goquery.Selection) {
		if genre := text.Clean(sel.Text()); genre != "" {
			details.AddGenres(genre)
		}
	})

	infoText := info.Text()
	if m := gogoReleasedRe.FindStringSubmatch(infoText); m != nil {
		details.ReleaseYear = m[1]
	}
	if m := gogoStatusRe.FindStringSubmatch(infoText); m != nil {
		details.Status = models.ParseStatus(m[1])
	}

	details.Episodes = g.fetchEpisodes(ctx, doc)
	details.EpisodeCount = len(details.Episodes)
	return details, nil
}

// fetchEpisodes resolves the episode list through the ajax endpoint using
// the internal series id embedded in the detail page. A missing id or a
// failed ajax fetch yields an empty list, never an error.
func (g *Gogoanime) fetchEpisodes(ctx context.Context, doc *goquery.Document) []models.Episode {
	movieID, _ := doc.Find("input#movie_id").First().Attr("value")
	if movieID == "" {
		doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if m := gogoMovieIDRe.FindStringSubmatch(sel.Text()); m != nil {
				movieID = m[1]
				return false
			}
			return true
		})
	}
	if movieID == "" {
		return []models.Episode{}
	}

	listURL := fmt.Sprintf("%s/load-list-episode?ep_start=0&ep_end=9999&id=%s", g.ajaxURL, movieID)
	body, err := g.fetcher.Fetch(ctx, listURL, g.fetchOptions())
	if err != nil {
		log.Printf("[gogoanime] episode list fetch failed: %v", err)
		return []models.Episode{}
	}
	listDoc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return []models.Episode{}
	}

	// The endpoint lists newest first; reverse for 1-based ordering.
	anchors := listDoc.Find("a.active")
	episodes := make([]models.Episode, 0, anchors.Length())
	for i := anchors.Length() - 1; i >= 0; i-- {
		sel := anchors.Eq(i)
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		number := anchors.Length() - i
		id := strings.TrimSuffix(idFromHref(href), ".html")
		if id == "" {
			id = fmt.Sprintf("ep%d", number)
		}
		title := text.Clean(sel.Text())
		if title == "" {
			title = fmt.Sprintf("Episode %d", number)
		}
		episodes = append(episodes, models.Episode{
			Number:  number,
			Title:   title,
			ID:      id,
			Sources: []models.VideoSource{},
		})
	}
	return episodes
}

func (g *Gogoanime) GetEpisodeSources(ctx context.Context, _ string, episodeID string) ([]models.VideoSource, error) {
	episodeURL := strings.TrimRight(g.site.BaseURL, "/") + "/" + strings.TrimLeft(episodeID, "/")
	body, err := g.fetcher.Fetch(ctx, episodeURL, g.fetchOptions())
	if err != nil {
		return []models.VideoSource{}, nil
	}

	sources := embed.SourcesFromEmbedPage(body, episodeURL)
	for i := range sources {
		sources[i].Language = g.Language()
	}
	return sources, nil
}

func (g *Gogoanime) GetDownloadLinks(ctx context.Context, _ string, episodeID string) ([]models.DownloadLink, error) {
	if episodeID == "" {
		return []models.DownloadLink{}, nil
	}
	episodeURL := strings.TrimRight(g.site.BaseURL, "/") + "/" + strings.TrimLeft(episodeID, "/")
	body, err := g.fetcher.Fetch(ctx, episodeURL, g.fetchOptions())
	if err != nil {
		return []models.DownloadLink{}, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return []models.DownloadLink{}, nil
	}

	links := []models.DownloadLink{}
	doc.Find("div.favorites_book a[href], li.dowloads a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := sel.AttrOr("href", "")
		if href == "" || !strings.Contains(strings.ToLower(href), "download") {
			return
		}
		label := text.Clean(sel.Text())
		links = append(links, models.DownloadLink{
			URL:     embed.NormalizeScheme(href),
			Label:   label,
			Quality: text.ParseQuality(label),
		})
	})
	return links, nil
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 && values[0] != "" {
		return values[0]
	}
	return fallback
}
