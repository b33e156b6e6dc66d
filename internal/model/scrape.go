package model

import "strings"

// ScrapeResult is what a scrape service returns for one URL.
type ScrapeResult struct {
	Markdown string         `json:"markdown,omitempty"`
	Extract  *Extract       `json:"extract,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Source   string         `json:"source,omitempty"` // e.g. "firecrawl", "jina", "local_http"
}

// Extract holds plain-text content pulled out of the page body.
type Extract struct {
	Text string `json:"text,omitempty"`
}

// Content returns the markdown if present, else the extracted text, else "".
func (r *ScrapeResult) Content() string {
	if r == nil {
		return ""
	}
	if r.Markdown != "" {
		return r.Markdown
	}
	if r.Extract != nil {
		return r.Extract.Text
	}
	return ""
}

// MetadataOrEmpty returns the metadata bag, never nil.
func (r *ScrapeResult) MetadataOrEmpty() map[string]any {
	if r == nil || r.Metadata == nil {
		return map[string]any{}
	}
	return r.Metadata
}

// MetaString reads a string value from a metadata bag. Scrape services
// sometimes return a list for repeated tags; the first element is used.
func MetaString(meta map[string]any, key string) string {
	switch v := meta[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	case []string:
		if len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
	}
	return ""
}
