package gmail

import (
	"google.golang.org/api/gmail/v1"
)

// Normalize maps a full Gmail message to a Record. Missing headers, body,
// labels or metadata are never errors.
func Normalize(msg *gmail.Message) Record {
	rec := Record{Labels: []string{}}
	if msg == nil {
		return rec
	}

	rec.Labels = append(rec.Labels, msg.LabelIds...)
	rec.Metadata.ThreadID = optional(msg.ThreadId)

	payload := msg.Payload
	if payload == nil {
		return rec
	}
	rec.Metadata.MimeType = optional(payload.MimeType)

	headers := payload.Headers
	rec.Title = header(headers, "Subject")
	rec.Sender = header(headers, "From")
	rec.To = header(headers, "To")
	rec.Cc = header(headers, "Cc")
	rec.Bcc = header(headers, "Bcc")
	rec.SentDate = header(headers, "Date")

	if body, ok := ExtractBody(payload); ok {
		rec.Content = &body
	}
	return rec
}

// header returns the value of the first header named exactly name.
func header(headers []*gmail.MessagePartHeader, name string) *string {
	for _, h := range headers {
		if h != nil && h.Name == name {
			v := h.Value
			return &v
		}
	}
	return nil
}
