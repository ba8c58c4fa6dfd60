package gmail

import (
	"context"
	"fmt"

	"google.golang.org/api/iterator"
)

// Lister lists message identifiers one page at a time. An empty pageToken
// asks for the first page; an empty next token means there are no more.
type Lister interface {
	ListMessages(ctx context.Context, pageToken string, maxResults int64) (ids []string, nextPageToken string, err error)
}

// Pager walks a mailbox listing page by page. It is forward-only: once
// Next returns iterator.Done or an error, every later call returns
// iterator.Done.
type Pager struct {
	lister   Lister
	pageSize int
	limit    int

	pageToken string
	fetched   int
	done      bool
}

// NewPager returns a Pager requesting pageSize identifiers per page and at
// most limit identifiers overall. A limit of zero or less means no limit.
func NewPager(lister Lister, pageSize, limit int) (*Pager, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	if limit < 0 {
		limit = 0
	}
	return &Pager{lister: lister, pageSize: pageSize, limit: limit}, nil
}

// Next returns the next page of message identifiers, or iterator.Done when
// the listing is exhausted or the limit has been reached.
func (p *Pager) Next(ctx context.Context) ([]string, error) {
	if p.done {
		return nil, iterator.Done
	}

	size := p.pageSize
	if p.limit > 0 {
		size = min(size, p.limit-p.fetched)
	}

	ids, next, err := p.lister.ListMessages(ctx, p.pageToken, int64(size))
	if err != nil {
		p.done = true
		return nil, fmt.Errorf("list messages after %d: %w", p.fetched, err)
	}
	if len(ids) == 0 {
		p.done = true
		return nil, iterator.Done
	}
	if p.limit > 0 && len(ids) > size {
		ids = ids[:size]
	}

	p.fetched += len(ids)
	p.pageToken = next
	if (p.limit > 0 && p.fetched >= p.limit) || next == "" {
		p.done = true
	}
	return ids, nil
}

// Fetched reports how many identifiers have been returned so far.
func (p *Pager) Fetched() int {
	return p.fetched
}
