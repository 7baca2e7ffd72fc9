// Package sanitize provides text sanitization for user-supplied input.
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`[ \t]+`)
	entityReplacer  = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", "\"",
		"&#39;", "'",
	)
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entityReplacer.Replace(result)
	// entities may have hidden tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips HTML, composes to NFC and collapses runs of spaces and tabs.
// Line breaks are kept. Stripping repeats until the value stops changing,
// so no depth of nested entity encoding survives a second call. Every pass
// that changes the value shortens it, which bounds the loop.
func Text(s string) string {
	result := s
	for {
		next := StripHTML(result)
		if next == result {
			break
		}
		result = next
	}
	result = norm.NFC.String(result)
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// Line is Text for single-line fields such as names: all whitespace,
// including line breaks, collapses to one space.
func Line(s string) string {
	return strings.Join(strings.Fields(Text(s)), " ")
}

// FoldEmail trims and case-folds an email address.
func FoldEmail(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}
