package tui

import (
	"fmt"

	"github.com/bassamadnan/mailpull/gmail"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Browser is the tview application behind mailpull view: a record list,
// a preview pane and a full view of one record.
type Browser struct {
	*tview.Application
	rootPages     *tview.Pages
	dashboardFlex *tview.Flex
	list          *RecordListView
	preview       *PreviewPane
	focused       *FocusedRecordView
	statusBar     *tview.TextView

	records []gmail.Record
	source  string
}

func NewBrowser(records []gmail.Record, source string) *Browser {
	b := &Browser{
		Application: tview.NewApplication(),
		records:     records,
		source:      source,
	}

	b.preview = NewPreviewPane()
	b.focused = NewFocusedRecordView()
	b.list = NewRecordListView(b)

	b.dashboardFlex = tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(b.list.List, 0, 1, true).
		AddItem(b.preview, 0, 3, false)
	b.dashboardFlex.SetBackgroundColor(tcell.ColorDefault)

	b.statusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	b.statusBar.SetBackgroundColor(tcell.ColorDefault)
	b.setStandardStatusMessage()

	mainLayoutWithStatus := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(b.dashboardFlex, 0, 1, true).
		AddItem(b.statusBar, 1, 0, false)
	mainLayoutWithStatus.SetBackgroundColor(tcell.ColorDefault)

	b.rootPages = tview.NewPages().
		AddPage(PageDashboard, mainLayoutWithStatus, true, true).
		AddPage(PageFocusedRecord, b.focused, true, false)

	b.Application.SetRoot(b.rootPages, true).EnableMouse(true)
	b.setGlobalKeybindings()

	b.preview.SetWelcomeMessage()
	b.list.SetRecords(records)
	if rec, ok := b.record(0); ok {
		b.preview.SetRecord(rec)
	}

	return b
}

func (b *Browser) Run() error {
	b.Application.SetFocus(b.list.List)
	return b.Application.Run()
}

func (b *Browser) setGlobalKeybindings() {
	b.Application.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := b.rootPages.GetFrontPage()
		if event.Key() == tcell.KeyCtrlC {
			b.Stop()
			return nil
		}
		if event.Rune() == 'q' || event.Rune() == 'Q' {
			b.Stop()
			return nil
		}
		if currentPage == PageFocusedRecord && event.Key() == tcell.KeyEscape {
			b.ShowDashboardView()
			return nil
		}
		return event
	})
}

func (b *Browser) setStandardStatusMessage() {
	b.statusBar.SetText(fmt.Sprintf(" [::d]%s | %d messages | [::b]Q/Ctrl+C[::-]:Quit [::b]Ent[::-]:Full [::b]Esc[::-]:Back",
		tview.Escape(b.source), len(b.records)))
}

func (b *Browser) record(index int) (gmail.Record, bool) {
	if index < 0 || index >= len(b.records) {
		return gmail.Record{}, false
	}
	return b.records[index], true
}

func (b *Browser) ShowFocusedRecordView(rec gmail.Record) {
	b.focused.SetRecord(rec)
	b.rootPages.SwitchToPage(PageFocusedRecord)
	b.Application.SetFocus(b.focused.textView)
}

func (b *Browser) ShowDashboardView() {
	b.rootPages.SwitchToPage(PageDashboard)
	b.Application.SetFocus(b.list.List)
}
