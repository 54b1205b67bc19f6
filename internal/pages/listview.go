package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/diewo77/eventdesk/internal/api"
	"github.com/diewo77/eventdesk/internal/grid"
)

// ErrStale is returned when a fetch result was superseded by a newer
// request or the view was closed before it arrived.
var ErrStale = errors.New("pages: stale response dropped")

// ErrClosed is returned by operations on a closed view.
var ErrClosed = errors.New("pages: view closed")

// Source is the backend surface a list view needs.
type Source interface {
	List(ctx context.Context, resource string, query url.Values) ([]api.Record, error)
	Delete(ctx context.Context, resource, id string) error
}

// ListView owns the rows of one module page. Rows are replaced wholesale
// on every refetch and only the latest request may update them.
type ListView struct {
	Module Module

	src    Source
	logger *slog.Logger

	mu      sync.Mutex
	rows    []grid.Row
	gen     uint64
	loading bool
	err     error
	closed  bool
	fetched time.Time
}

// NewListView creates an empty view for m.
func NewListView(m Module, src Source, logger *slog.Logger) *ListView {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListView{Module: m, src: src, logger: logger}
}

// Refresh fetches the collection. A response is applied only if no newer
// Refresh started meanwhile; otherwise ErrStale is returned.
func (v *ListView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	v.gen++
	gen := v.gen
	v.loading = true
	v.mu.Unlock()

	recs, err := v.src.List(ctx, v.Module.Resource, nil)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || gen != v.gen {
		v.logger.Debug("dropping stale list response", "module", v.Module.Name, "gen", gen)
		return ErrStale
	}
	v.loading = false
	if err != nil {
		v.err = err
		return fmt.Errorf("list %s: %w", v.Module.Resource, err)
	}
	rows := make([]grid.Row, len(recs))
	for i, r := range recs {
		rows[i] = grid.Row(r)
	}
	v.rows = rows
	v.err = nil
	v.fetched = time.Now()
	return nil
}

// Rows returns the current rows. The slice must not be modified.
func (v *ListView) Rows() []grid.Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rows
}

// Loading reports whether a fetch is in flight.
func (v *ListView) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// Err returns the error of the last applied fetch.
func (v *ListView) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Grid builds a grid over the current rows with the given state.
func (v *ListView) Grid(state grid.State, loc *time.Location, emptyMessage string) *grid.Grid {
	v.mu.Lock()
	rows, loading := v.rows, v.loading
	v.mu.Unlock()

	g := grid.New(v.Module.Columns, grid.WithState(state), grid.WithLocation(loc), grid.WithEmptyMessage(emptyMessage))
	g.SetRows(rows)
	g.SetLoading(loading)
	return g
}

// Delete removes the row locally before calling the backend. On failure
// the row is put back at its position; on success the list is refetched.
func (v *ListView) Delete(ctx context.Context, id string) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	pos := -1
	for i, r := range v.rows {
		if r.ID() == id {
			pos = i
			break
		}
	}
	var removed grid.Row
	if pos >= 0 {
		removed = v.rows[pos]
		next := make([]grid.Row, 0, len(v.rows)-1)
		next = append(next, v.rows[:pos]...)
		v.rows = append(next, v.rows[pos+1:]...)
	}
	v.mu.Unlock()

	if err := v.src.Delete(ctx, v.Module.Resource, id); err != nil {
		if removed != nil {
			v.rollback(pos, removed)
		}
		v.logger.Warn("delete failed", "module", v.Module.Name, "id", id, "err", err)
		return fmt.Errorf("delete %s/%s: %w", v.Module.Resource, id, err)
	}
	if err := v.Refresh(ctx); err != nil && !errors.Is(err, ErrStale) {
		return err
	}
	return nil
}

func (v *ListView) rollback(pos int, row grid.Row) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range v.rows {
		if r.ID() == row.ID() {
			return
		}
	}
	if pos > len(v.rows) {
		pos = len(v.rows)
	}
	next := make([]grid.Row, 0, len(v.rows)+1)
	next = append(next, v.rows[:pos]...)
	next = append(next, row)
	v.rows = append(next, v.rows[pos:]...)
}

// Close discards the view; in-flight responses are dropped.
func (v *ListView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.rows = nil
}

// FetchedAt returns when rows were last replaced.
func (v *ListView) FetchedAt() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fetched
}
