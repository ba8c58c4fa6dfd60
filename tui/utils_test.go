package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "", truncate("anything", 0))

	long := truncate("a rather long subject line", 10)
	assert.LessOrEqual(t, ansi.StringWidth(long), 10)
	assert.True(t, strings.HasSuffix(long, "..."))

	wide := truncate("日本語のメール件名です", 8)
	assert.LessOrEqual(t, ansi.StringWidth(wide), 8)
}

func TestFormatSentDate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Jan02", formatSentDate("Mon, 2 Jan 2006 12:00:00 +0000", now))
	assert.Equal(t, "???", formatSentDate("", now))
	assert.Equal(t, "???", formatSentDate("yesterday", now))

	today := formatSentDate(now.Format(time.RFC1123Z), now)
	assert.Equal(t, now.Local().Format("15:04"), today)
}

func TestSenderName(t *testing.T) {
	assert.Equal(t, "Jane Doe", senderName(`"Jane Doe" <jane@example.com>`))
	assert.Equal(t, "jane@example.com", senderName("jane@example.com"))
	assert.Equal(t, "(Unknown Sender)", senderName(""))
}
