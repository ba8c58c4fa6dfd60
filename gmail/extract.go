package gmail

import (
	"encoding/base64"
	"strings"

	"github.com/bassamadnan/mailpull/sanitize"
	"google.golang.org/api/gmail/v1"
)

// ExtractBody returns the cleaned text of the first part, in depth-first
// pre-order, that carries inline body data. The declared MIME type is
// ignored; every body goes through sanitize.Clean.
func ExtractBody(part *gmail.MessagePart) (string, bool) {
	if part == nil {
		return "", false
	}
	if part.Body != nil && part.Body.Data != "" {
		return sanitize.Clean(decodeBody(part.Body.Data)), true
	}
	for _, sub := range part.Parts {
		if body, ok := ExtractBody(sub); ok && body != "" {
			return body, true
		}
	}
	return "", false
}

// decodeBody decodes base64url data with or without padding. Data that is
// not base64url is returned as it came.
func decodeBody(data string) string {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return data
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
