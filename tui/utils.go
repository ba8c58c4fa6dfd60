package tui

import (
	"net/mail"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// truncate shortens s to at most maxLen display columns, adding "..." if
// truncated.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return ansi.Truncate(s, maxLen, "")
	}
	return ansi.Truncate(s, maxLen, "...")
}

// formatSentDate formats a Date header for the record list: the time of
// day for messages sent today, the day otherwise.
func formatSentDate(raw string, now time.Time) string {
	t, err := mail.ParseDate(raw)
	if err != nil {
		return "???"
	}
	t, now = t.Local(), now.Local()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("Jan02")
}

// senderName returns the display part of a From header.
func senderName(from string) string {
	name := from
	if idx := strings.Index(name, "<"); idx > 0 {
		name = strings.TrimSpace(name[:idx])
	}
	name = strings.Trim(name, `"`)
	if name == "" {
		return "(Unknown Sender)"
	}
	return name
}
