package embed

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"

	"streamscout/models"
)

// SourcesFromEmbedPage scans a fetched player page for everything playable:
// iframe embeds classified through the host registry, then inline scripts
// run through SourcesFromScript. Iframe hits come first so a recognized
// host outranks a script fallback. Unparseable markup yields no sources.
func SourcesFromEmbedPage(page []byte, referer string) []models.VideoSource {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return []models.VideoSource{}
	}

	sources := []models.VideoSource{}
	doc.Find("iframe").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			return
		}
		cls := Classify(src)
		sources = append(sources, models.NewVideoSource(cls.EmbedURL, cls.SourceKind(), referer))
	})
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		sources = append(sources, SourcesFromScript(sel.Text(), referer)...)
	})
	return sources
}
