package tui

import (
	"time"

	"github.com/bassamadnan/mailpull/ingest"
)

// Result is what a fetch run produced.
type Result struct {
	Summary ingest.Summary
	Err     error
}

// EventMsg carries one progress event from the running fetch.
type EventMsg ingest.Event

// RunDoneMsg signals that the fetch has returned.
type RunDoneMsg Result

// StatusTickMsg refreshes the elapsed time.
type StatusTickMsg struct{ Time time.Time }
