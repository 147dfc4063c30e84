package scrape

import (
	"net/url"
	"strings"
)

// endpointURL expands a registry endpoint template against the site base
// URL. Placeholders: {query}, {id}, {kind}. Query values are escaped; ids
// come from the sites themselves and pass through as-is.
func endpointURL(baseURL, template string, vars map[string]string) string {
	path := template
	for key, val := range vars {
		if key == "query" {
			val = url.QueryEscape(val)
		}
		path = strings.ReplaceAll(path, "{"+key+"}", val)
	}
	return strings.TrimRight(baseURL, "/") + path
}

// absoluteURL resolves a possibly-relative href against the site base.
func absoluteURL(baseURL, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// idFromHref extracts the trailing path segment used as a content id.
func idFromHref(href string) string {
	href = strings.TrimSuffix(href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		href = href[i+1:]
	}
	if i := strings.Index(href, "?"); i >= 0 {
		href = href[:i]
	}
	return href
}
