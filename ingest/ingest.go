// Package ingest drives a fetch run: page through the mailbox, retrieve
// and normalize every message of a page, and store the page as one batch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bassamadnan/mailpull/gmail"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/iterator"
)

// Getter retrieves a full message by identifier.
type Getter interface {
	GetMessage(ctx context.Context, id string) (*gmailapi.Message, error)
}

// PageSource yields pages of message identifiers until iterator.Done.
type PageSource interface {
	Next(ctx context.Context) ([]string, error)
}

// BatchWriter stores the records of one page under a sequence number and
// returns where they went.
type BatchWriter interface {
	WriteBatch(records []gmail.Record, seq int) (string, error)
}

// EventKind tells what happened in an Event.
type EventKind int

const (
	PageListed EventKind = iota
	MessageFetched
	BatchWritten
)

// Event reports progress of a run to an observer.
type Event struct {
	Kind  EventKind
	Seq   int    // batch sequence number, starting at 1
	Count int    // identifiers in the page, or records written
	Title string // MessageFetched only
	Path  string // BatchWritten only
}

// Summary totals a run.
type Summary struct {
	RunID    string
	Pages    int
	Messages int
	Files    []string
}

// Runner fetches pages from Pages, retrieves each message with Messages
// and writes one batch per page with Writer. Retrievals happen one at a
// time in listed order.
type Runner struct {
	Pages    PageSource
	Messages Getter
	Writer   BatchWriter
	Logger   *log.Logger

	// OnEvent, when set, is called synchronously for every Event.
	OnEvent func(Event)
}

// Run processes pages until the source is exhausted, ctx is cancelled or a
// step fails. Batches written before a failure stay in place; the batch in
// progress when it happens is dropped.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	sum := Summary{RunID: uuid.NewString()}
	logger = logger.With("run", sum.RunID)
	logger.Info("fetch started")

	for seq := 1; ; seq++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		ids, err := r.Pages.Next(ctx)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return sum, err
		}
		logger.Info("page listed", "batch", seq, "messages", len(ids))
		r.emit(Event{Kind: PageListed, Seq: seq, Count: len(ids)})

		records := make([]gmail.Record, 0, len(ids))
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			msg, err := r.Messages.GetMessage(ctx, id)
			if err != nil {
				return sum, fmt.Errorf("batch %d: %w", seq, err)
			}
			rec := gmail.Normalize(msg)
			records = append(records, rec)
			logger.Debug("message fetched", "id", id)
			r.emit(Event{Kind: MessageFetched, Seq: seq, Title: gmail.Str(rec.Title)})
		}

		path, err := r.Writer.WriteBatch(records, seq)
		if err != nil {
			return sum, err
		}
		sum.Pages++
		sum.Messages += len(records)
		sum.Files = append(sum.Files, path)
		logger.Info("batch written", "batch", seq, "path", path, "records", len(records))
		r.emit(Event{Kind: BatchWritten, Seq: seq, Count: len(records), Path: path})
	}

	logger.Info("fetch finished", "pages", sum.Pages, "messages", sum.Messages)
	return sum, nil
}

func (r *Runner) emit(ev Event) {
	if r.OnEvent != nil {
		r.OnEvent(ev)
	}
}
