package adapter

import (
	"html"
	"regexp"
	"strings"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// extractText turns HTML, or HTML-escaped HTML as Greenhouse and most feeds
// return it, into a single line of plain text.
func extractText(content string) string {
	plain := htmlTagRegex.ReplaceAllString(html.UnescapeString(content), " ")
	return strings.Join(strings.Fields(html.UnescapeString(plain)), " ")
}

// splitCompanyTitle splits "Company: Title". Titles without the separator
// are returned whole with an empty company.
func splitCompanyTitle(s string) (company, title string) {
	s = strings.TrimSpace(s)
	before, after, found := strings.Cut(s, ": ")
	if !found || strings.TrimSpace(before) == "" || strings.TrimSpace(after) == "" {
		return "", s
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}
