// Package htmlsanitize cleans free-form text produced by the analysis
// server (roasts, encouragement, tips) before it is rendered. That text comes
// from a language model and may contain stray markup; only a small set of
// inline and block formatting survives.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy = bluemonday.NewPolicy().
		AllowElements("p", "br", "strong", "em", "b", "i", "u",
			"ul", "ol", "li", "blockquote", "code", "pre")
	strict = bluemonday.StrictPolicy()
)

// Sanitize strips everything outside the formatting allowlist.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// SanitizeToHTML sanitizes s and marks the result safe for templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// Text strips all markup and returns plain text with surrounding
// whitespace trimmed.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s looks like it has no markup.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML escapes s and turns blank-line separated blocks into
// paragraphs and single newlines into <br>.
func PlainTextToHTML(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
	if s == "" {
		return ""
	}

	var b strings.Builder
	for _, block := range strings.Split(s, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		for i, ln := range lines {
			lines[i] = html.EscapeString(strings.TrimSpace(ln))
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

// PrepareForDisplay renders server text for a template: plain text is
// escaped and paragraphed, markup is sanitized.
func PrepareForDisplay(s string) template.HTML {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}
