// Package embed classifies third-party player references into typed stream
// descriptors and digs playable streams out of already-fetched player
// pages. Everything here is pure parsing; no I/O.
package embed

import (
	"regexp"
	"strings"

	"streamscout/models"
)

// Classification identifies the hosting provider behind an embed URL.
type Classification struct {
	Host     string // registry host name, or "iframe" when unrecognized
	VideoID  string
	EmbedURL string
}

type hostPattern struct {
	host    string
	pattern *regexp.Regexp
}

// hostRegistry is ordered; the first matching entry wins. Patterns come
// from the embed path shapes each provider uses.
var hostRegistry = []hostPattern{
	{"streamtape", regexp.MustCompile(`streamtape\.com/e/(\w+)`)},
	{"doodstream", regexp.MustCompile(`dood\.[^/]+/e/(\w+)`)},
	{"mixdrop", regexp.MustCompile(`mixdrop\.[^/]+/e/(\w+)`)},
	{"upstream", regexp.MustCompile(`upstream\.to/e/(\w+)`)},
	{"vidcloud", regexp.MustCompile(`vidcloud\.[^/]+/e/(\w+)`)},
	{"mp4upload", regexp.MustCompile(`mp4upload\.com/embed-(\w+)`)},
	{"yourupload", regexp.MustCompile(`yourupload\.com/embed/(\w+)`)},
	{"sbembed", regexp.MustCompile(`sbembed\.com/embed/(\w+)`)},
	{"filemoon", regexp.MustCompile(`filemoon\.[^/]+/e/(\w+)`)},
	{"voe", regexp.MustCompile(`voe\.sx/e/(\w+)`)},
}

var hostKinds = map[string]models.SourceKind{
	"streamtape": models.SourceStreamtape,
	"doodstream": models.SourceDoodstream,
	"mixdrop":    models.SourceMixdrop,
	"upstream":   models.SourceUpstream,
	"vidcloud":   models.SourceVidcloud,
	"mp4upload":  models.SourceMp4upload,
	"yourupload": models.SourceYourupload,
	"sbembed":    models.SourceSbembed,
	"filemoon":   models.SourceFilemoon,
	"voe":        models.SourceVoe,
}

// Classify matches an embed URL against the host registry. Unrecognized
// URLs come back as a generic iframe with an empty video id.
func Classify(embedURL string) Classification {
	normalized := NormalizeScheme(embedURL)
	for _, entry := range hostRegistry {
		if m := entry.pattern.FindStringSubmatch(normalized); m != nil {
			return Classification{Host: entry.host, VideoID: m[1], EmbedURL: normalized}
		}
	}
	return Classification{Host: "iframe", EmbedURL: normalized}
}

// SourceKind maps a classification onto a VideoSource kind.
func (c Classification) SourceKind() models.SourceKind {
	if kind, ok := hostKinds[c.Host]; ok {
		return kind
	}
	return models.SourceIframe
}

// NormalizeScheme upgrades scheme-relative URLs (//host/path) to explicit
// https. Other URLs pass through unchanged.
func NormalizeScheme(rawURL string) string {
	if strings.HasPrefix(rawURL, "//") {
		return "https:" + rawURL
	}
	return rawURL
}
