package embed

import (
	"regexp"

	"github.com/samber/lo"

	"streamscout/models"
)

// Layered patterns for stream URLs buried in inline player scripts:
// bare quoted literals, jwplayer-style file: assignments, and
// sources-array literals. Applied in order; matches are deduplicated.
var playlistPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)["'](https?://[^"']+\.m3u8[^"']*)["']`),
	regexp.MustCompile(`(?is)file["']?\s*:\s*["']([^"']+\.m3u8[^"']*)["']`),
	regexp.MustCompile(`(?is)sources?["']?\s*:\s*\[.*?["']([^"']+\.m3u8[^"']*)["']`),
}

var directPattern = regexp.MustCompile(`(?i)["'](https?://[^"']+\.mp4[^"']*)["']`)

// ExtractPlaylistURLs scans script text for HLS playlist-manifest URLs.
// Results keep first-occurrence order.
func ExtractPlaylistURLs(script string) []string {
	var urls []string
	for _, pattern := range playlistPatterns {
		for _, m := range pattern.FindAllStringSubmatch(script, -1) {
			urls = append(urls, NormalizeScheme(m[1]))
		}
	}
	return lo.Uniq(urls)
}

// ExtractDirectURLs scans script text for direct media file URLs.
func ExtractDirectURLs(script string) []string {
	var urls []string
	for _, m := range directPattern.FindAllStringSubmatch(script, -1) {
		urls = append(urls, NormalizeScheme(m[1]))
	}
	return lo.Uniq(urls)
}

// SourcesFromScript turns everything found in an inline script into typed
// video sources: playlists as HLS, file literals as direct streams.
func SourcesFromScript(script, referer string) []models.VideoSource {
	var sources []models.VideoSource
	for _, u := range ExtractPlaylistURLs(script) {
		sources = append(sources, models.NewVideoSource(u, models.SourceHLS, referer))
	}
	for _, u := range ExtractDirectURLs(script) {
		sources = append(sources, models.NewVideoSource(u, models.SourceDirect, referer))
	}
	return sources
}
