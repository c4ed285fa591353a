package html

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

const DefaultExcerptChars = 160

var ugcPolicy = bluemonday.UGCPolicy()

// PlainText extracts whitespace-normalized text from an HTML fragment,
// preferring <article> and <main> content when present.
func PlainText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	doc.Find("script, style, nav, header, footer, aside").Remove()

	text := strings.TrimSpace(doc.Find("article").Text())
	if text == "" {
		text = strings.TrimSpace(doc.Find("main").Text())
	}
	if text == "" {
		text = strings.TrimSpace(doc.Text())
	}

	return strings.Join(strings.Fields(text), " "), nil
}

// MarkdownToHTML renders markdown source.
func MarkdownToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// Sanitize strips markup that is unsafe to embed in a page.
func Sanitize(fragment string) string {
	return ugcPolicy.Sanitize(fragment)
}

// Excerpt shortens text to at most maxChars runes, cutting at a word
// boundary when one is available. The appended ellipsis counts toward
// maxChars.
func Excerpt(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	if maxChars < 1 {
		return ""
	}

	cut := string(runes[:maxChars-1])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
