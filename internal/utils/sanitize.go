package utils

import (
	"regexp"  // Dangerous pattern matching
	"strings" // String manipulation

	"github.com/microcosm-cc/bluemonday" // HTML sanitizer
)

var (
	textPolicy = bluemonday.StrictPolicy() // Strips every tag
	richPolicy = bluemonday.UGCPolicy()    // Keeps safe formatting for forum posts

	dangerousPattern = regexp.MustCompile(`(?i)(javascript:|vbscript:|on\w+\s*=|\\x[0-9a-f]{2})`)
	controlPattern   = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]")
)

// SanitizeText removes markup, script vectors and control characters from plain text fields
func SanitizeText(s string) string {
	s = controlPattern.ReplaceAllString(s, "")
	s = dangerousPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(textPolicy.Sanitize(s))
}

// SanitizeRichText keeps user generated formatting but drops scripts and unsafe attributes
func SanitizeRichText(s string) string {
	s = controlPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(richPolicy.Sanitize(s))
}

// SanitizeTags cleans and de-duplicates a tag list
func SanitizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(SanitizeText(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
