package batch

import (
	"strings"
	"unicode"
)

// fill wraps s greedily at width characters. A word longer than width
// starts on the current line and is broken across lines; words may also
// break after a hyphen between letters. Whitespace runs become single
// spaces and widths are counted in runes, not display columns.
func fill(s string, width int) string {
	chunks := splitChunks(s)
	var lines []string

	for len(chunks) > 0 {
		var cur [][]rune
		curLen := 0

		if len(lines) > 0 && isSpace(chunks[0]) {
			chunks = chunks[1:]
		}
		for len(chunks) > 0 {
			if l := len(chunks[0]); curLen+l <= width {
				cur = append(cur, chunks[0])
				curLen += l
				chunks = chunks[1:]
				continue
			}
			break
		}

		if len(chunks) > 0 && len(chunks[0]) > width {
			spaceLeft := max(width-curLen, 1)
			chunk := chunks[0]
			end := spaceLeft
			if len(chunk) > spaceLeft {
				if h := lastHyphen(chunk[:spaceLeft]); h > 0 && !allHyphens(chunk[:h]) {
					end = h + 1
				}
			}
			cur = append(cur, chunk[:end])
			chunks[0] = chunk[end:]
		}

		if n := len(cur); n > 0 && strings.TrimSpace(string(cur[n-1])) == "" {
			cur = cur[:n-1]
		}
		if len(cur) > 0 {
			var b strings.Builder
			for _, c := range cur {
				b.WriteString(string(c))
			}
			lines = append(lines, b.String())
		}
	}
	return strings.Join(lines, "\n")
}

// splitChunks cuts s into words, word pieces ending in a hyphen and the
// single spaces between words.
func splitChunks(s string) [][]rune {
	var chunks [][]rune
	for i, word := range strings.Fields(s) {
		if i > 0 {
			chunks = append(chunks, []rune{' '})
		}
		chunks = append(chunks, splitHyphenated([]rune(word))...)
	}
	return chunks
}

// splitHyphenated breaks a word after each hyphen that joins two letter
// runs, as in "well-known" or "e-mail-address".
func splitHyphenated(w []rune) [][]rune {
	var pieces [][]rune
	start := 0
	for i := 1; i < len(w)-1; i++ {
		if w[i] == '-' && hyphenBreak(w, i) {
			pieces = append(pieces, w[start:i+1])
			start = i + 1
		}
	}
	return append(pieces, w[start:])
}

func hyphenBreak(w []rune, i int) bool {
	before := (i >= 2 && isLetter(w[i-1]) && isLetter(w[i-2])) ||
		(i >= 3 && isLetter(w[i-1]) && w[i-2] == '-' && isLetter(w[i-3]))
	if !before || i+1 >= len(w) || !isLetter(w[i+1]) {
		return false
	}
	return (i+2 < len(w) && isLetter(w[i+2])) ||
		(i+3 < len(w) && w[i+2] == '-' && isLetter(w[i+3]))
}

func isLetter(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isSpace(c []rune) bool {
	return len(c) == 1 && c[0] == ' '
}

func lastHyphen(c []rune) int {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i] == '-' {
			return i
		}
	}
	return -1
}

func allHyphens(c []rune) bool {
	for _, r := range c {
		if r != '-' {
			return false
		}
	}
	return true
}
