package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bassamadnan/mailpull/gmail"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	PageDashboard     = "dashboard"
	PageFocusedRecord = "focusedRecord"
)

// RecordListView lists the records of a batch file in file order.
type RecordListView struct {
	*tview.List
}

func NewRecordListView(b *Browser) *RecordListView {
	list := tview.NewList().
		ShowSecondaryText(true).
		SetSecondaryTextColor(tcell.ColorDimGray)

	list.SetBackgroundColor(tcell.ColorDefault)
	list.SetSelectedStyle(tcell.StyleDefault.
		Foreground(tcell.ColorWhite).
		Background(tcell.ColorSteelBlue).
		Attributes(tcell.AttrBold))
	list.SetBorder(true).SetTitle("Messages")

	rlv := &RecordListView{List: list}

	list.SetChangedFunc(func(index int, _ string, _ string, _ rune) {
		if rec, ok := b.record(index); ok {
			b.preview.SetRecord(rec)
		}
	})
	list.SetSelectedFunc(func(index int, _ string, _ string, _ rune) {
		if rec, ok := b.record(index); ok {
			b.ShowFocusedRecordView(rec)
		}
	})

	return rlv
}

// SetRecords replaces the list items.
func (rlv *RecordListView) SetRecords(records []gmail.Record) {
	rlv.List.Clear()
	now := time.Now()
	for _, rec := range records {
		mainText, secondaryText := listItemText(rec, now)
		rlv.List.AddItem(mainText, secondaryText, 0, nil)
	}
	if rlv.List.GetItemCount() > 0 {
		rlv.List.SetCurrentItem(0)
	}
}

// listItemText renders the two list lines of a record: its title, then
// sender and date.
func listItemText(rec gmail.Record, now time.Time) (string, string) {
	title := gmail.Str(rec.Title)
	if title == "" {
		title = "(No Subject)"
	}
	mainText := fmt.Sprintf("[white]%s", tview.Escape(truncate(title, 40)))
	secondaryText := fmt.Sprintf("[::d]%s · %s",
		tview.Escape(truncate(senderName(gmail.Str(rec.Sender)), 20)),
		formatSentDate(gmail.Str(rec.SentDate), now))
	return mainText, secondaryText
}

// recordDetails renders a record as tview-tagged text. The full view adds
// the recipient, label and metadata lines.
func recordDetails(rec gmail.Record, full bool) string {
	var b strings.Builder
	line := func(key, val string) {
		b.WriteString(fmt.Sprintf("[::b]%s:[::-] %s\n", key, tview.Escape(val)))
	}
	line("From", gmail.Str(rec.Sender))
	if full {
		line("To", gmail.Str(rec.To))
		if rec.Cc != nil {
			line("Cc", *rec.Cc)
		}
		if rec.Bcc != nil {
			line("Bcc", *rec.Bcc)
		}
	}
	line("Date", gmail.Str(rec.SentDate))
	line("Subject", gmail.Str(rec.Title))
	if full {
		line("Labels", strings.Join(rec.Labels, ", "))
		line("Thread", gmail.Str(rec.Metadata.ThreadID))
		line("MIME type", gmail.Str(rec.Metadata.MimeType))
	}
	b.WriteString("\n" + strings.Repeat("─", 60) + "\n\n")
	b.WriteString(tview.Escape(gmail.Str(rec.Content)))
	return b.String()
}

type PreviewPane struct {
	*tview.TextView
}

func NewPreviewPane() *PreviewPane {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	tv.SetBackgroundColor(tcell.ColorDefault)
	tv.SetBorder(true).SetTitle("Preview")
	return &PreviewPane{TextView: tv}
}

func (pp *PreviewPane) SetRecord(rec gmail.Record) {
	pp.SetText(recordDetails(rec, false)).ScrollToBeginning()
	pp.SetTitle(fmt.Sprintf("Preview: %s", truncate(gmail.Str(rec.Title), 40)))
}

func (pp *PreviewPane) SetWelcomeMessage() {
	pp.SetText("\n[lightblue::b]mailpull[-::-]\n\nThe batch file has no records.\n\n[::d]Navigate with ↑ ↓ keys.\nPress Enter to open in full view.\nPress Q or Ctrl+C to quit.[::-]").
		ScrollToBeginning()
	pp.SetTitle("Home")
}

type FocusedRecordView struct {
	*tview.Frame
	textView *tview.TextView
}

func NewFocusedRecordView() *FocusedRecordView {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	textView.SetBackgroundColor(tcell.ColorDefault)

	frame := tview.NewFrame(textView).
		AddText("", true, tview.AlignCenter, tcell.ColorYellow).
		AddText("Press Esc to go back", false, tview.AlignCenter, tcell.ColorDimGray)
	frame.SetBorder(true).SetBackgroundColor(tcell.ColorDefault)

	return &FocusedRecordView{Frame: frame, textView: textView}
}

func (frv *FocusedRecordView) SetRecord(rec gmail.Record) {
	frv.textView.SetText(recordDetails(rec, true)).ScrollToBeginning()
	frv.Frame.Clear().
		AddText(fmt.Sprintf("Subject: %s", truncate(gmail.Str(rec.Title), 60)), true, tview.AlignCenter, tcell.ColorYellow).
		AddText("Press Esc to go back", false, tview.AlignCenter, tcell.ColorDimGray)
}
