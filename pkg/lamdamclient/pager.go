package lamdamclient

import (
	"context"
	"sync"
)

// RecordLister is the part of Client the Pager needs.
type RecordLister interface {
	ListRecords(ctx context.Context, params ListParams) (*RecordPage, error)
}

// Pager holds the cursor state of a record listing and moves it page by page.
//
// An empty response to NextPage or PrevPage never moves the cursor: data,
// cursor and page number stay as they were. FetchData, which starts a new
// listing, always replaces the state, also with an empty result. Fetches are
// serialised, so responses are applied in the order they were requested.
type Pager struct {
	lister RecordLister

	fetchMu sync.Mutex

	mu          sync.RWMutex
	params      ListParams
	data        []Record
	info        PageInfo
	currentPage int
	loading     bool
}

func NewPager(lister RecordLister) *Pager {
	return &Pager{lister: lister, currentPage: 1}
}

func (p *Pager) Data() []Record {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Record, len(p.data))
	copy(out, p.data)
	return out
}

func (p *Pager) Paging() PageInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.info
}

func (p *Pager) HasNext() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.info.HasNext
}

func (p *Pager) HasPrev() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.info.HasPrev
}

func (p *Pager) CurrentPage() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentPage
}

// IsLoading reports whether a filter fetch is in flight. Page to page
// navigation does not raise the flag.
func (p *Pager) IsLoading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

type move int

const (
	moveReset move = iota
	moveNext
	movePrev
)

// FetchData loads a listing. Without a cursor it starts over at page one and
// remembers params as the active filter for later navigation.
func (p *Pager) FetchData(ctx context.Context, params ListParams) error {
	return p.fetch(ctx, moveReset, &params)
}

// NextPage loads the page after the current one. It is a no-op when there is
// no data or no cursor to continue from.
func (p *Pager) NextPage(ctx context.Context) error {
	return p.fetch(ctx, moveNext, nil)
}

// PrevPage loads the page before the current one. It is a no-op when there
// is no data or no cursor to go back from.
func (p *Pager) PrevPage(ctx context.Context) error {
	return p.fetch(ctx, movePrev, nil)
}

// Refresh reloads the active filter from the first page.
func (p *Pager) Refresh(ctx context.Context) error {
	return p.fetch(ctx, moveReset, nil)
}

// request builds the query for m from the current state. The caller holds
// fetchMu, so the cursor cannot change before the response is applied.
func (p *Pager) request(m move, override *ListParams) (ListParams, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	params := p.params
	switch m {
	case moveNext, movePrev:
		cursor := p.info.LastID
		if m == movePrev {
			cursor = p.info.FirstID
		}
		if len(p.data) == 0 || cursor == "" {
			return params, false
		}
		params.FromID, params.ToID = "", ""
		if m == moveNext {
			params.FromID = cursor
		} else {
			params.ToID = cursor
		}
	default:
		if override != nil {
			params = *override
		} else {
			params.FromID, params.ToID = "", ""
		}
	}
	return params, true
}

func (p *Pager) fetch(ctx context.Context, m move, override *ListParams) error {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()

	params, ok := p.request(m, override)
	if !ok {
		return nil
	}

	navigating := params.FromID != "" || params.ToID != ""
	if m == moveReset {
		p.setLoading(true)
		defer p.setLoading(false)
	}

	page, err := p.lister.ListRecords(ctx, params)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !navigating {
		p.params = params
		p.data = page.Entries
		p.info = page.Paging
		p.currentPage = 1
		return nil
	}

	if len(page.Entries) == 0 {
		return nil
	}
	p.params = params
	p.params.FromID, p.params.ToID = "", ""
	p.data = page.Entries
	p.info = page.Paging
	if params.FromID != "" {
		p.currentPage++
	} else if p.currentPage > 1 {
		p.currentPage--
	}
	return nil
}

func (p *Pager) setLoading(v bool) {
	p.mu.Lock()
	p.loading = v
	p.mu.Unlock()
}
