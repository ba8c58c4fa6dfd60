// Package batch reads and writes the plain-text record files produced by
// a fetch run, one file per page of messages.
package batch

import (
	"strings"

	"github.com/bassamadnan/mailpull/gmail"
)

// ContentWidth is the number of characters content lines are wrapped at.
const ContentWidth = 110

const nullValue = "null"

// Format renders records the way a batch file stores them: each record
// block is surrounded by newlines and blocks are joined by a newline.
func Format(records []gmail.Record) string {
	blocks := make([]string, len(records))
	for i, rec := range records {
		blocks[i] = FormatRecord(rec)
	}
	return strings.Join(blocks, "\n")
}

// FormatRecord renders a single record block. Missing cc and bcc are
// written as null, other missing fields as empty text.
func FormatRecord(rec gmail.Record) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("title: " + gmail.Str(rec.Title) + ",\n")
	b.WriteString("sent_date: " + gmail.Str(rec.SentDate) + ",\n")
	b.WriteString("content: " + wrap(gmail.Str(rec.Content)) + ",\n")
	b.WriteString("from: " + gmail.Str(rec.Sender) + ",\n")
	b.WriteString("to: " + gmail.Str(rec.To) + ",\n")
	b.WriteString("cc: " + orNull(rec.Cc) + ",\n")
	b.WriteString("bcc: " + orNull(rec.Bcc) + ",\n")
	b.WriteString("labels: " + strings.Join(rec.Labels, ", ") + "\n")
	b.WriteString("threadId: " + gmail.Str(rec.Metadata.ThreadID) + ",\n")
	b.WriteString("mimeType: " + gmail.Str(rec.Metadata.MimeType) + "\n")
	return b.String()
}

func wrap(s string) string {
	if s == "" {
		return ""
	}
	return fill(s, ContentWidth)
}

func orNull(p *string) string {
	if p == nil {
		return nullValue
	}
	return *p
}
