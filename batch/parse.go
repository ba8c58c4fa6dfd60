package batch

import (
	"fmt"
	"io"
	"strings"

	"github.com/bassamadnan/mailpull/gmail"
)

// blockSeparator sits between two record blocks: the closing newline of
// one, the joining newline and the opening newline of the next.
const blockSeparator = "\n\n\n"

// fixed field lines after the content lines of a block.
var tailFields = []string{"from", "to", "cc", "bcc", "labels", "threadId", "mimeType"}

// Parse reads a batch file back into records. Wrapped content is joined
// with single spaces, so words longer than ContentWidth come back split.
func Parse(r io.Reader) ([]gmail.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	text := strings.Trim(string(data), "\n")
	if text == "" {
		return []gmail.Record{}, nil
	}

	blocks := strings.Split(text, blockSeparator)
	records := make([]gmail.Record, 0, len(blocks))
	for i, block := range blocks {
		rec, err := parseBlock(strings.Trim(block, "\n"))
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseBlock(block string) (gmail.Record, error) {
	lines := strings.Split(block, "\n")
	if len(lines) < 3+len(tailFields) {
		return gmail.Record{}, fmt.Errorf("expected at least %d lines, got %d", 3+len(tailFields), len(lines))
	}

	var rec gmail.Record
	var err error
	if rec.Title, err = field(lines[0], "title"); err != nil {
		return rec, err
	}
	if rec.SentDate, err = field(lines[1], "sent_date"); err != nil {
		return rec, err
	}

	tail := lines[len(lines)-len(tailFields):]
	values := make(map[string]string, len(tailFields))
	for i, name := range tailFields {
		v, err := field(tail[i], name)
		if err != nil {
			return rec, err
		}
		values[name] = gmail.Str(v)
	}

	content := lines[2 : len(lines)-len(tailFields)]
	first, ok := strings.CutPrefix(content[0], "content: ")
	if !ok {
		return rec, fmt.Errorf("missing content field")
	}
	content[0] = first
	content[len(content)-1] = strings.TrimSuffix(content[len(content)-1], ",")
	rec.Content = nonEmpty(strings.Join(content, " "))

	rec.Sender = nonEmpty(values["from"])
	rec.To = nonEmpty(values["to"])
	rec.Cc = nullable(values["cc"])
	rec.Bcc = nullable(values["bcc"])
	rec.Labels = []string{}
	if values["labels"] != "" {
		rec.Labels = strings.Split(values["labels"], ", ")
	}
	rec.Metadata.ThreadID = nonEmpty(values["threadId"])
	rec.Metadata.MimeType = nonEmpty(values["mimeType"])
	return rec, nil
}

// field returns the value of a "name: value," line. Empty values are nil.
func field(line, name string) (*string, error) {
	v, ok := strings.CutPrefix(line, name+":")
	if !ok {
		return nil, fmt.Errorf("expected %s field, got %q", name, line)
	}
	v = strings.TrimPrefix(v, " ")
	v = strings.TrimSuffix(v, ",")
	return nonEmpty(v), nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullable(s string) *string {
	if s == nullValue {
		return nil
	}
	return &s
}
