// Package sanitize turns message bodies into single-line plain text.
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// MaxURLLength is the number of characters kept from every URL in cleaned text.
const MaxURLLength = 50

var urlPattern = regexp.MustCompile(`https?://\S+`)

// skipTags are elements whose subtree never contributes text.
var skipTags = map[string]bool{
	"style":    true,
	"script":   true,
	"noscript": true,
	"template": true,
}

var invisible = strings.NewReplacer(
	"\u200c", "", // zero-width non-joiner
	"\u00a0", "", // non-breaking space
)

// Clean strips markup from raw, drops invisible characters, collapses
// whitespace and shortens URLs. Input that cannot be parsed as markup is
// handled as plain text, and so is a trailing "<" that no ">" closes.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}

	head, tail := splitUnclosed(raw)
	var segments []string
	if doc, err := html.Parse(strings.NewReader(head)); err == nil {
		segments = textNodes(doc, nil)
	} else {
		segments = []string{head}
	}
	if tail != "" {
		segments = append(segments, "<")
		if rest := strings.TrimSpace(html.UnescapeString(tail[1:])); rest != "" {
			segments = append(segments, rest)
		}
	}

	text := invisible.Replace(strings.Join(segments, " "))
	text = strings.Join(strings.Fields(text), " ")
	return ShortenURLs(text)
}

// ShortenURLs cuts every http(s) URL in text down to MaxURLLength characters.
func ShortenURLs(text string) string {
	return urlPattern.ReplaceAllStringFunc(text, func(u string) string {
		r := []rune(u)
		if len(r) <= MaxURLLength {
			return u
		}
		return string(r[:MaxURLLength])
	})
}

// splitUnclosed cuts raw at the first "<" after the last ">". The tail
// holds no complete tag, and the HTML tokenizer would drop it as an
// unfinished one.
func splitUnclosed(raw string) (head, tail string) {
	from := strings.LastIndexByte(raw, '>') + 1
	i := strings.IndexByte(raw[from:], '<')
	if i < 0 {
		return raw, ""
	}
	return raw[:from+i], raw[from+i:]
}

func textNodes(n *html.Node, out []string) []string {
	switch n.Type {
	case html.ElementNode:
		if skipTags[strings.ToLower(n.Data)] {
			return out
		}
	case html.TextNode:
		if s := strings.TrimSpace(n.Data); s != "" {
			out = append(out, s)
		}
		return out
	case html.CommentNode, html.DoctypeNode:
		return out
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = textNodes(c, out)
	}
	return out
}
