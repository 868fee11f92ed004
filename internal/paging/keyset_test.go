package paging

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFetcher struct {
	ids      []string // ascending
	fetchErr error
}

func newMemFetcher(n int) *memFetcher {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("01H%023d", i+1)
	}
	return &memFetcher{ids: ids}
}

func (m *memFetcher) scan(b Bound) []string {
	var out []string
	if b.Desc {
		for i := len(m.ids) - 1; i >= 0; i-- {
			if b.Cursor == "" || m.ids[i] < b.Cursor {
				out = append(out, m.ids[i])
			}
		}
	} else {
		for _, id := range m.ids {
			if b.Cursor == "" || id > b.Cursor {
				out = append(out, id)
			}
		}
	}
	if b.Limit > 0 && len(out) > b.Limit {
		out = out[:b.Limit]
	}
	return out
}

func (m *memFetcher) Fetch(_ context.Context, b Bound) ([]string, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.scan(b), nil
}

func (m *memFetcher) Exists(_ context.Context, b Bound) (bool, error) {
	return len(m.scan(Bound{Cursor: b.Cursor, Desc: b.Desc, Limit: 1})) > 0, nil
}

func (m *memFetcher) Count(context.Context) (int64, error) {
	return int64(len(m.ids)), nil
}

func identity(s string) string { return s }

func walkForward(t *testing.T, f *memFetcher, order SortOrder) ([]string, int) {
	t.Helper()
	ctx := context.Background()
	var all []string
	pages := 0
	req := Request{Sort: order}
	for {
		page, err := Paginate[string](ctx, f, identity, req)
		require.NoError(t, err)
		all = append(all, page.Entries...)
		pages++
		if !page.Paging.HasNext {
			return all, pages
		}
		req = Request{Sort: order, FromID: page.Paging.LastID}
	}
}

func TestCursorContinuity(t *testing.T) {
	f := newMemFetcher(27)

	asc, pages := walkForward(t, f, SortAsc)
	assert.Equal(t, f.ids, asc)
	assert.Equal(t, 3, pages)

	desc, _ := walkForward(t, f, SortDesc)
	expected := append([]string(nil), f.ids...)
	sort.Sort(sort.Reverse(sort.StringSlice(expected)))
	assert.Equal(t, expected, desc)
}

func TestPrevAfterNextReturnsSamePage(t *testing.T) {
	ctx := context.Background()
	f := newMemFetcher(25)

	for _, order := range []SortOrder{SortAsc, SortDesc} {
		first, err := Paginate[string](ctx, f, identity, Request{Sort: order})
		require.NoError(t, err)
		assert.False(t, first.Paging.HasPrev)
		assert.True(t, first.Paging.HasNext)

		second, err := Paginate[string](ctx, f, identity, Request{Sort: order, FromID: first.Paging.LastID})
		require.NoError(t, err)
		assert.True(t, second.Paging.HasPrev)

		back, err := Paginate[string](ctx, f, identity, Request{Sort: order, ToID: second.Paging.FirstID})
		require.NoError(t, err)
		assert.Equal(t, first.Entries, back.Entries, string(order))
		assert.Equal(t, first.Paging, back.Paging)
	}
}

func TestFacets(t *testing.T) {
	ctx := context.Background()
	f := newMemFetcher(21)

	page, err := Paginate[string](ctx, f, identity, Request{Sort: SortAsc})
	require.NoError(t, err)
	assert.Equal(t, int64(21), page.Paging.Count)
	assert.Equal(t, int64(3), page.Paging.TotalPage)
	assert.Equal(t, f.ids[0], page.Paging.FirstID)
	assert.Equal(t, f.ids[9], page.Paging.LastID)

	last, err := Paginate[string](ctx, f, identity, Request{Sort: SortAsc, FromID: f.ids[19]})
	require.NoError(t, err)
	assert.Equal(t, []string{f.ids[20]}, last.Entries)
	assert.False(t, last.Paging.HasNext)
	assert.True(t, last.Paging.HasPrev)
}

func TestEmptyPages(t *testing.T) {
	ctx := context.Background()

	empty, err := Paginate[string](ctx, newMemFetcher(0), identity, Request{})
	require.NoError(t, err)
	assert.NotNil(t, empty.Entries)
	assert.Empty(t, empty.Entries)
	assert.Equal(t, Info{}, empty.Paging)

	f := newMemFetcher(10)
	past, err := Paginate[string](ctx, f, identity, Request{Sort: SortAsc, FromID: f.ids[9]})
	require.NoError(t, err)
	assert.Empty(t, past.Entries)
	assert.Empty(t, past.Paging.FirstID)
	assert.False(t, past.Paging.HasNext)
	assert.True(t, past.Paging.HasPrev)

	before, err := Paginate[string](ctx, f, identity, Request{Sort: SortAsc, ToID: f.ids[0]})
	require.NoError(t, err)
	assert.Empty(t, before.Entries)
	assert.True(t, before.Paging.HasNext)
	assert.False(t, before.Paging.HasPrev)
}

func TestPaginateErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Paginate[string](ctx, newMemFetcher(3), identity, Request{FromID: "a", ToID: "b"})
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = Paginate[string](ctx, &memFetcher{fetchErr: boom}, identity, Request{})
	assert.ErrorIs(t, err, boom)
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortDesc, s)

	s, err = ParseSort("asc")
	require.NoError(t, err)
	assert.Equal(t, SortAsc, s)

	_, err = ParseSort("sideways")
	assert.Error(t, err)
}
