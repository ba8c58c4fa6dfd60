package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bassamadnan/mailpull/ingest"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultWidth = 80

// Progress is the bubbletea model shown by fetch --tui. It follows the
// events of one run and quits when the run returns.
type Progress struct {
	events <-chan ingest.Event
	done   <-chan Result
	cancel context.CancelFunc

	batch       int
	pageCount   int
	pageFetched int
	messages    int
	files       int
	lastTitle   string
	lastFile    string

	started time.Time
	now     time.Time
	width   int

	cancelling bool
	finished   bool
	result     Result
}

// NewProgress builds the model. cancel is called when the user asks to
// stop; the model keeps running until the result arrives on done.
func NewProgress(events <-chan ingest.Event, done <-chan Result, cancel context.CancelFunc) Progress {
	now := time.Now()
	return Progress{
		events:  events,
		done:    done,
		cancel:  cancel,
		started: now,
		now:     now,
	}
}

func (m Progress) Init() tea.Cmd {
	return tea.Batch(
		waitForEventCmd(m.events, m.done),
		statusTickCmd(1*time.Second),
	)
}

// Result returns the run result once the run has returned.
func (m Progress) Result() (Result, bool) {
	return m.result, m.finished
}

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !m.finished && !m.cancelling {
				m.cancelling = true
				if m.cancel != nil {
					m.cancel()
				}
			}
		}

	case EventMsg:
		m.apply(ingest.Event(msg))
		return m, waitForEventCmd(m.events, m.done)

	case RunDoneMsg:
		m.finished = true
		m.result = Result(msg)
		return m, tea.Quit

	case StatusTickMsg:
		if m.finished {
			return m, nil
		}
		m.now = msg.Time
		return m, statusTickCmd(1 * time.Second)
	}
	return m, nil
}

func (m *Progress) apply(ev ingest.Event) {
	switch ev.Kind {
	case ingest.PageListed:
		m.batch = ev.Seq
		m.pageCount = ev.Count
		m.pageFetched = 0
	case ingest.MessageFetched:
		m.messages++
		m.pageFetched++
		m.lastTitle = ev.Title
	case ingest.BatchWritten:
		m.files++
		m.lastFile = ev.Path
	}
}

func (m Progress) View() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	valWidth := width - HeaderKeyStyle.GetWidth() - AppStyle.GetHorizontalPadding() - ContentBoxStyle.GetHorizontalFrameSize()

	lastTitle := m.lastTitle
	if lastTitle == "" && m.messages > 0 {
		lastTitle = "(No Subject)"
	}

	var b strings.Builder
	row := func(key, val string) {
		b.WriteString(HeaderKeyStyle.Render(key) + HeaderValStyle.Render(truncate(val, valWidth)) + "\n")
	}
	row("Batch:", fmt.Sprintf("%d (%d/%d)", m.batch, m.pageFetched, m.pageCount))
	row("Messages:", fmt.Sprintf("%d", m.messages))
	row("Files written:", fmt.Sprintf("%d", m.files))
	row("Last message:", lastTitle)
	row("Last file:", m.lastFile)

	body := lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("mailpull fetch"),
		ContentBoxStyle.Render(strings.TrimSuffix(b.String(), "\n")),
		m.renderStatusBar(width-AppStyle.GetHorizontalPadding()),
	)
	return AppStyle.Render(body) + "\n"
}

func (m Progress) renderStatusBar(width int) string {
	style, text := StatusBarNormalStyle, ""
	elapsed := m.now.Sub(m.started).Truncate(time.Second)

	switch {
	case m.finished && m.result.Err == nil:
		style = StatusBarSuccessStyle
		text = fmt.Sprintf("Done: %d messages in %d files (%v)", m.result.Summary.Messages, len(m.result.Summary.Files), elapsed)
	case m.finished && errors.Is(m.result.Err, context.Canceled):
		text = "Interrupted"
	case m.finished:
		style = StatusBarErrorStyle
		text = fmt.Sprintf("Error: %v", m.result.Err)
	case m.cancelling:
		text = "Cancelling..."
	default:
		text = fmt.Sprintf("Fetching | %v | [Q/Ctrl+C]:Cancel", elapsed)
	}
	if width < 1 {
		width = 1
	}
	return style.Width(width).Render(truncate(text, width-style.GetHorizontalPadding()))
}
