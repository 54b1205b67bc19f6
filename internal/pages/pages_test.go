package pages

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/eventdesk/internal/api"
	"github.com/diewo77/eventdesk/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	records []api.Record
	lists   int
	// gate, when set, blocks the next List call until a value is sent.
	gate      chan []api.Record
	deleteErr error
	deleted   []string
}

func (f *fakeSource) List(ctx context.Context, resource string, _ url.Values) ([]api.Record, error) {
	f.mu.Lock()
	f.lists++
	gate := f.gate
	f.gate = nil
	recs := append([]api.Record(nil), f.records...)
	f.mu.Unlock()
	if gate != nil {
		select {
		case recs = <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return recs, nil
}

func (f *fakeSource) Delete(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	kept := f.records[:0]
	for _, r := range f.records {
		if r["id"] != id {
			kept = append(kept, r)
		}
	}
	f.records = kept
	return nil
}

func records(ids ...string) []api.Record {
	out := make([]api.Record, len(ids))
	for i, id := range ids {
		out[i] = api.Record{"id": id, "name": "row " + id}
	}
	return out
}

func ids(rows []grid.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID()
	}
	return out
}

func testModule() Module {
	m, _ := Lookup("products")
	return m
}

func TestModulesRegistered(t *testing.T) {
	names := []string{"customers", "events", "quotes", "invoices", "payments", "equipment",
		"products", "packages", "rentals", "incidents", "tasks"}
	for _, n := range names {
		m, ok := Lookup(n)
		require.True(t, ok, n)
		assert.NotEmpty(t, m.Columns, n)
		assert.NotEmpty(t, m.EmptyMessage, n)
		assert.Equal(t, n, m.Name)
	}
	assert.Len(t, All(), len(names))
	assert.Equal(t, "customers", All()[0].Name)

	inv, _ := Lookup("invoices")
	assert.True(t, inv.Documents)
	cust, _ := Lookup("customers")
	assert.True(t, cust.Accepts("email"))
	assert.False(t, cust.Accepts("id"))
}

func TestCustomerNameDerived(t *testing.T) {
	m, _ := Lookup("customers")
	col := m.Columns[0]
	assert.Equal(t, "Ana Ruiz", col.Display(grid.Row{"firstName": "Ana", "lastName": "Ruiz"}))
	assert.Equal(t, "Ruiz", col.Display(grid.Row{"lastName": "Ruiz"}))
}

func TestRefreshReplacesRows(t *testing.T) {
	src := &fakeSource{records: records("1", "2")}
	v := NewListView(testModule(), src, nil)
	require.NoError(t, v.Refresh(context.Background()))
	assert.Equal(t, []string{"1", "2"}, ids(v.Rows()))
	assert.False(t, v.FetchedAt().IsZero())

	src.records = records("3")
	require.NoError(t, v.Refresh(context.Background()))
	assert.Equal(t, []string{"3"}, ids(v.Rows()))
}

func TestRefreshLastRequestWins(t *testing.T) {
	gate := make(chan []api.Record)
	src := &fakeSource{records: records("new"), gate: gate}
	v := NewListView(testModule(), src, nil)

	errc := make(chan error, 1)
	go func() { errc <- v.Refresh(context.Background()) }()
	// wait for the first call to be parked on the gate
	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.lists == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, v.Refresh(context.Background()))
	gate <- records("old")
	assert.ErrorIs(t, <-errc, ErrStale)
	assert.Equal(t, []string{"new"}, ids(v.Rows()))
}

func TestClosedViewDropsResponse(t *testing.T) {
	gate := make(chan []api.Record)
	src := &fakeSource{gate: gate}
	v := NewListView(testModule(), src, nil)
	errc := make(chan error, 1)
	go func() { errc <- v.Refresh(context.Background()) }()
	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.lists == 1
	}, time.Second, time.Millisecond)
	v.Close()
	gate <- records("x")
	assert.ErrorIs(t, <-errc, ErrStale)
	assert.Empty(t, v.Rows())
	assert.ErrorIs(t, v.Refresh(context.Background()), ErrClosed)
}

func TestDeleteSuccessRefetches(t *testing.T) {
	src := &fakeSource{records: records("1", "2", "3")}
	v := NewListView(testModule(), src, nil)
	require.NoError(t, v.Refresh(context.Background()))

	require.NoError(t, v.Delete(context.Background(), "2"))
	assert.Equal(t, []string{"1", "3"}, ids(v.Rows()))
	assert.Equal(t, []string{"2"}, src.deleted)
	assert.Equal(t, 2, src.lists)
}

func TestDeleteFailureRollsBack(t *testing.T) {
	src := &fakeSource{records: records("1", "2", "3"), deleteErr: errors.New("boom")}
	v := NewListView(testModule(), src, nil)
	require.NoError(t, v.Refresh(context.Background()))

	err := v.Delete(context.Background(), "2")
	require.Error(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids(v.Rows()))
	assert.Equal(t, 1, src.lists)
}

func TestListViewGrid(t *testing.T) {
	recs := make([]api.Record, 0, 12)
	for i := 0; i < 12; i++ {
		recs = append(recs, api.Record{"id": string(rune('a' + i)), "name": "p", "price": float64(i)})
	}
	v := NewListView(testModule(), &fakeSource{records: recs}, nil)
	require.NoError(t, v.Refresh(context.Background()))

	st := grid.NewState()
	st.PageIndex = 1
	page := v.Grid(st, time.UTC, "none").View()
	assert.Equal(t, 2, page.PageCount)
	assert.Len(t, page.Rows, 2)
	assert.Equal(t, 12, page.Total)
}
