package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/bassamadnan/mailpull/batch"
	"github.com/bassamadnan/mailpull/gmail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"
)

// mailbox is an in-memory remote: it lists ids page by page and serves
// each message with a subject equal to its id.
type mailbox struct {
	ids     []string
	gets    []string
	failGet string
	onGet   func(id string)
	listErr error
}

func newMailbox(n int) *mailbox {
	m := &mailbox{}
	for i := range n {
		m.ids = append(m.ids, fmt.Sprintf("m%02d", i))
	}
	return m
}

func (m *mailbox) ListMessages(_ context.Context, token string, max int64) ([]string, string, error) {
	if m.listErr != nil {
		return nil, "", m.listErr
	}
	start := 0
	if token != "" {
		var err error
		if start, err = strconv.Atoi(token); err != nil {
			return nil, "", err
		}
	}
	end := min(start+int(max), len(m.ids))
	next := ""
	if end < len(m.ids) {
		next = fmt.Sprintf("%d", end)
	}
	return m.ids[start:end], next, nil
}

func (m *mailbox) GetMessage(_ context.Context, id string) (*gmailapi.Message, error) {
	m.gets = append(m.gets, id)
	if m.onGet != nil {
		m.onGet(id)
	}
	if id == m.failGet {
		return nil, fmt.Errorf("get message %s: %w", id, errors.New("backend unavailable"))
	}
	return &gmailapi.Message{
		Id:       id,
		ThreadId: "t-" + id,
		Payload: &gmailapi.MessagePart{
			MimeType: "text/plain",
			Headers:  []*gmailapi.MessagePartHeader{{Name: "Subject", Value: id}},
			Body:     &gmailapi.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte("body of " + id))},
		},
	}, nil
}

type memWriter struct {
	batches map[int][]gmail.Record
	err     error
}

func (w *memWriter) WriteBatch(records []gmail.Record, seq int) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	if w.batches == nil {
		w.batches = map[int][]gmail.Record{}
	}
	w.batches[seq] = records
	return fmt.Sprintf("mem/%d", seq), nil
}

func newRunner(t *testing.T, mb *mailbox, pageSize, limit int, w BatchWriter) *Runner {
	t.Helper()
	pager, err := gmail.NewPager(mb, pageSize, limit)
	require.NoError(t, err)
	return &Runner{Pages: pager, Messages: mb, Writer: w}
}

func TestRunWritesOneBatchPerPage(t *testing.T) {
	mb := newMailbox(8)
	w := &memWriter{}
	var events []Event
	r := newRunner(t, mb, 3, 0, w)
	r.OnEvent = func(ev Event) { events = append(events, ev) }

	sum, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Pages)
	assert.Equal(t, 8, sum.Messages)
	assert.Equal(t, []string{"mem/1", "mem/2", "mem/3"}, sum.Files)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, mb.ids, mb.gets, "retrieved once each, in listed order")

	require.Len(t, w.batches, 3)
	assert.Len(t, w.batches[3], 2)
	assert.Equal(t, "m03", gmail.Str(w.batches[2][0].Title))
	assert.Equal(t, "body of m03", gmail.Str(w.batches[2][0].Content))

	var written int
	for _, ev := range events {
		if ev.Kind == BatchWritten {
			written++
		}
	}
	assert.Equal(t, 3, written)
	assert.Equal(t, Event{Kind: PageListed, Seq: 1, Count: 3}, events[0])
}

func TestRunRespectsLimit(t *testing.T) {
	mb := newMailbox(20)
	w := &memWriter{}

	sum, err := newRunner(t, mb, 5, 7, w).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, sum.Messages)
	assert.Len(t, w.batches[1], 5)
	assert.Len(t, w.batches[2], 2)
}

func TestRunEmptyMailbox(t *testing.T) {
	w := &memWriter{}

	sum, err := newRunner(t, newMailbox(0), 5, 0, w).Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, sum.Pages)
	assert.Empty(t, w.batches)
}

func TestRunGetFailureAbortsWithoutPartialBatch(t *testing.T) {
	mb := newMailbox(6)
	mb.failGet = "m04"
	w := &memWriter{}

	sum, err := newRunner(t, mb, 3, 0, w).Run(context.Background())

	require.Error(t, err)
	assert.ErrorContains(t, err, "m04")
	assert.ErrorContains(t, err, "batch 2")
	assert.Equal(t, 1, sum.Pages)
	assert.Contains(t, w.batches, 1)
	assert.NotContains(t, w.batches, 2)
	assert.Equal(t, []string{"m00", "m01", "m02", "m03", "m04"}, mb.gets, "no retry and no further retrievals")
}

func TestRunListFailure(t *testing.T) {
	mb := newMailbox(3)
	mb.listErr = errors.New("unauthorized")

	_, err := newRunner(t, mb, 3, 0, &memWriter{}).Run(context.Background())

	assert.ErrorContains(t, err, "unauthorized")
}

func TestRunWriteFailure(t *testing.T) {
	boom := errors.New("disk full")

	_, err := newRunner(t, newMailbox(3), 3, 0, &memWriter{err: boom}).Run(context.Background())

	assert.ErrorIs(t, err, boom)
}

func TestRunCancelledMidPage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mb := newMailbox(6)
	mb.onGet = func(id string) {
		if id == "m04" {
			cancel()
		}
	}
	w := &memWriter{}

	sum, err := newRunner(t, mb, 3, 0, w).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, sum.Pages)
	assert.NotContains(t, w.batches, 2, "interrupted batch is not written")
	assert.Equal(t, "m04", mb.gets[len(mb.gets)-1])
}

func TestRunWithFileWriter(t *testing.T) {
	dir := t.TempDir()
	mb := newMailbox(4)

	sum, err := newRunner(t, mb, 2, 0, batch.NewWriter(dir, nil)).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sum.Files, 2)

	for i, path := range sum.Files {
		assert.True(t, strings.HasSuffix(path, fmt.Sprintf("%d_messages.txt", i+1)))
	}
}
