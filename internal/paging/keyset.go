// Package paging implements keyset pagination over a time ordered string key.
//
// A page is addressed by the key of an item on a neighbouring page: FromID
// continues strictly after that key in the requested sort order, ToID returns
// the page strictly before it. Entries always come back in the requested
// order regardless of the direction the store was scanned in.
package paging

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"

	DefaultPageSize = 10
)

// ParseSort reads a sort parameter. Newest first is the default.
func ParseSort(raw string) (SortOrder, error) {
	switch SortOrder(raw) {
	case "", SortDesc:
		return SortDesc, nil
	case SortAsc:
		return SortAsc, nil
	}
	return "", fmt.Errorf("unknown sort order %q", raw)
}

// Bound describes a single directional scan. Cursor is exclusive and empty
// means the scan starts at the beginning of the direction.
type Bound struct {
	Cursor string
	Desc   bool
	Limit  int
}

// Fetcher abstracts the store being paginated. Implementations apply their
// own filters; every method must see the same filtered set and be safe for
// concurrent use.
type Fetcher[T any] interface {
	// Fetch returns up to b.Limit items beyond b.Cursor ordered in b's direction.
	Fetch(ctx context.Context, b Bound) ([]T, error)

	// Exists reports whether any item lies beyond b.Cursor in b's direction.
	Exists(ctx context.Context, b Bound) (bool, error)

	// Count returns the number of items in the filtered set.
	Count(ctx context.Context) (int64, error)
}

type Request struct {
	FromID   string
	ToID     string
	Sort     SortOrder
	PageSize int
}

type Info struct {
	HasNext   bool   `json:"hasNext"`
	HasPrev   bool   `json:"hasPrev"`
	TotalPage int64  `json:"totalPage"`
	Count     int64  `json:"count"`
	FirstID   string `json:"firstId"`
	LastID    string `json:"lastId"`
}

type Page[T any] struct {
	Entries []T  `json:"entries"`
	Paging  Info `json:"paging"`
}

// Paginate loads the page addressed by req and computes its facets. key
// extracts the pagination key of an item.
func Paginate[T any](ctx context.Context, f Fetcher[T], key func(T) string, req Request) (*Page[T], error) {
	if req.FromID != "" && req.ToID != "" {
		return nil, fmt.Errorf("fromId and toId are mutually exclusive")
	}
	size := req.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	desc := req.Sort != SortAsc

	bound := Bound{Desc: desc, Limit: size}
	backwards := req.ToID != ""
	switch {
	case backwards:
		bound.Cursor = req.ToID
		bound.Desc = !desc
	case req.FromID != "":
		bound.Cursor = req.FromID
	}

	entries, err := f.Fetch(ctx, bound)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	if backwards {
		reverse(entries)
	}
	if entries == nil {
		entries = []T{}
	}

	page := &Page[T]{Entries: entries}
	if len(entries) > 0 {
		page.Paging.FirstID = key(entries[0])
		page.Paging.LastID = key(entries[len(entries)-1])
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := f.Count(gctx)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		page.Paging.Count = count
		page.Paging.TotalPage = (count + int64(size) - 1) / int64(size)
		return nil
	})
	if len(entries) > 0 {
		g.Go(func() error {
			ok, err := f.Exists(gctx, Bound{Cursor: page.Paging.LastID, Desc: desc, Limit: 1})
			if err != nil {
				return fmt.Errorf("probe next: %w", err)
			}
			page.Paging.HasNext = ok
			return nil
		})
		g.Go(func() error {
			ok, err := f.Exists(gctx, Bound{Cursor: page.Paging.FirstID, Desc: !desc, Limit: 1})
			if err != nil {
				return fmt.Errorf("probe prev: %w", err)
			}
			page.Paging.HasPrev = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// An empty page past either end still lets the client step back.
	if len(entries) == 0 && page.Paging.Count > 0 {
		switch {
		case req.FromID != "":
			page.Paging.HasPrev = true
		case backwards:
			page.Paging.HasNext = true
		}
	}
	return page, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
