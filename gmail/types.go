package gmail

// Record is the flat, storage-ready projection of a Gmail message.
// Nil pointers mark headers or bodies the message did not carry.
type Record struct {
	Title    *string  `json:"title"`
	SentDate *string  `json:"sent_date"`
	Content  *string  `json:"content"`
	Sender   *string  `json:"from"`
	To       *string  `json:"to"`
	Cc       *string  `json:"cc"`
	Bcc      *string  `json:"bcc"`
	Labels   []string `json:"labels"`
	Metadata Metadata `json:"other_metadata"`
}

// Metadata holds message attributes that are passed through untouched.
type Metadata struct {
	ThreadID *string `json:"threadId"`
	MimeType *string `json:"mimeType"`
}

// Str returns p's value, or the empty string for nil.
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
