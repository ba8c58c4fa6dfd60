package tui

import (
	"time"

	"github.com/bassamadnan/mailpull/ingest"
	tea "github.com/charmbracelet/bubbletea"
)

// waitForEventCmd listens on the event channel and sends an EventMsg per
// event. Once the channel is closed it waits for the run result instead.
func waitForEventCmd(events <-chan ingest.Event, done <-chan Result) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return RunDoneMsg(<-done)
		}
		return EventMsg(ev)
	}
}

// statusTickCmd creates a ticker for updating the status bar periodically.
func statusTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return StatusTickMsg{Time: t}
	})
}
