// Package text holds small scraping helpers shared by site adapters:
// whitespace cleanup, year/duration extraction and quality label parsing.
package text

import (
	"regexp"
	"strings"

	"streamscout/models"
)

var (
	yearRe        = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	minutesRe     = regexp.MustCompile(`(\d+)\s*min`)
	hoursRe       = regexp.MustCompile(`(\d+)\s*h`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	queryStripRe  = regexp.MustCompile(`[^\w\s\-+]`)
	querySpacesRe = regexp.MustCompile(`\s+`)
)

// Clean collapses runs of whitespace (including newlines and tabs) into
// single spaces and trims the result.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// CleanTitle strips decorative separators scraped along with a title.
func CleanTitle(title string) string {
	title = Clean(title)
	return strings.Trim(title, " -:|•")
}

// ExtractYear pulls the first plausible release year out of free text.
func ExtractYear(s string) string {
	return yearRe.FindString(s)
}

// ParseDuration normalizes a runtime fragment to "N min" or "Nh" form,
// returning the input unchanged when neither matches.
func ParseDuration(s string) string {
	lower := strings.ToLower(s)
	if m := minutesRe.FindStringSubmatch(lower); m != nil {
		return m[1] + " min"
	}
	if m := hoursRe.FindStringSubmatch(lower); m != nil {
		return m[1] + "h"
	}
	return s
}

// ParseQuality maps a quality label found on a page to a Quality tier.
func ParseQuality(s string) models.Quality {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "4k"), strings.Contains(lower, "2160p"):
		return models.Quality4K
	case strings.Contains(lower, "1440p"), strings.Contains(lower, "2k"):
		return models.Quality1440
	case strings.Contains(lower, "1080p"), strings.Contains(lower, "full hd"), strings.Contains(lower, "fhd"):
		return models.Quality1080
	case strings.Contains(lower, "720p"), strings.Contains(lower, "hd"):
		return models.Quality720
	case strings.Contains(lower, "480p"):
		return models.Quality480
	case strings.Contains(lower, "360p"):
		return models.Quality360
	}
	return models.QualityUnknown
}

// NormalizeQuery lowercases a search query, drops special characters and
// joins words with "+" for use in path-style search endpoints.
func NormalizeQuery(query string) string {
	query = queryStripRe.ReplaceAllString(strings.TrimSpace(query), "")
	query = querySpacesRe.ReplaceAllString(query, "+")
	return strings.ToLower(query)
}
