// Package grid implements the searchable, filterable, sortable and paginated
// table used by every list page. A Grid knows nothing about the domain of
// its rows; pages describe their fields with Column values.
//
// Displayed rows are always filter, then sort, then paginate. Input rows are
// never mutated. A Grid is not safe for concurrent use.
package grid

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Grid holds rows, column descriptors and the grid state.
type Grid struct {
	columns      []Column
	byID         map[string]int
	rows         []Row
	state        State
	loading      bool
	emptyMessage string
	loc          *time.Location
}

// Option configures a Grid.
type Option func(*Grid)

// WithEmptyMessage sets the message shown when no row matches.
func WithEmptyMessage(msg string) Option {
	return func(g *Grid) { g.emptyMessage = msg }
}

// WithLocation sets the location used for calendar-day comparisons.
// Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(g *Grid) {
		if loc != nil {
			g.loc = loc
		}
	}
}

// WithState restores a previously encoded state. Unknown columns and
// invalid page sizes are dropped.
func WithState(s State) Option {
	return func(g *Grid) { g.restore(s) }
}

// New builds a grid over columns. Column IDs must be unique.
func New(columns []Column, opts ...Option) *Grid {
	g := &Grid{
		columns:      columns,
		byID:         make(map[string]int, len(columns)),
		state:        NewState(),
		emptyMessage: "No data",
		loc:          time.UTC,
	}
	for i, c := range columns {
		g.byID[c.ID] = i
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Grid) restore(s State) {
	st := NewState()
	st.GlobalFilter = s.GlobalFilter
	for id, v := range s.ColumnFilters {
		if _, ok := g.byID[id]; ok && v != "" {
			st.ColumnFilters[id] = v
		}
	}
	if i, ok := g.byID[s.Sort.ColumnID]; ok && !g.columns[i].HideSort && s.Sort.Direction != None {
		st.Sort = s.Sort
	}
	if validPageSize(s.PageSize) {
		st.PageSize = s.PageSize
	}
	if s.PageIndex > 0 {
		st.PageIndex = s.PageIndex
	}
	g.state = st
}

// Columns returns the column descriptors.
func (g *Grid) Columns() []Column { return g.columns }

// Column returns the descriptor with the given id.
func (g *Grid) Column(id string) (Column, bool) {
	i, ok := g.byID[id]
	if !ok {
		return Column{}, false
	}
	return g.columns[i], true
}

// State returns a copy of the current state.
func (g *Grid) State() State { return g.state.clone() }

// SetRows replaces the row set. The state is kept; an out-of-range page
// index is clamped on the next View.
func (g *Grid) SetRows(rows []Row) { g.rows = rows }

// SetLoading marks the grid as waiting for data.
func (g *Grid) SetLoading(v bool) { g.loading = v }

// SetGlobalFilter sets the search text matched against every column.
func (g *Grid) SetGlobalFilter(text string) {
	if g.state.GlobalFilter == text {
		return
	}
	g.state.GlobalFilter = text
	g.state.PageIndex = 0
}

// SetColumnFilter upserts the filter of one column. An empty value clears it.
func (g *Grid) SetColumnFilter(columnID, value string) error {
	if _, ok := g.byID[columnID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}
	if value == "" {
		delete(g.state.ColumnFilters, columnID)
	} else {
		g.state.ColumnFilters[columnID] = value
	}
	g.state.PageIndex = 0
	return nil
}

// ResetFilters clears the global and column filters. Sort and pagination
// are kept.
func (g *Grid) ResetFilters() {
	g.state.GlobalFilter = ""
	g.state.ColumnFilters = map[string]string{}
}

// SetSort sorts by one column. Direction None clears the sort.
func (g *Grid) SetSort(columnID string, dir Direction) error {
	if dir == None {
		g.state.Sort = Sort{}
		return nil
	}
	i, ok := g.byID[columnID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}
	if g.columns[i].HideSort {
		return fmt.Errorf("%w: %s", ErrSortDisabled, columnID)
	}
	g.state.Sort = Sort{ColumnID: columnID, Direction: dir}
	return nil
}

// ToggleSort advances the sort of a column header: none, asc, desc, none.
// Clicking another column starts it at asc.
func (g *Grid) ToggleSort(columnID string) (Direction, error) {
	dir := Asc
	if g.state.Sort.ColumnID == columnID {
		dir = g.state.Sort.Direction.next()
	}
	if err := g.SetSort(columnID, dir); err != nil {
		return None, err
	}
	return dir, nil
}

// SetPageIndex moves to page n, clamped to the valid range.
func (g *Grid) SetPageIndex(n int) {
	g.state.PageIndex = g.clampPage(n, len(g.filtered()))
}

// SetPageSize changes the page size and keeps the page index in range.
func (g *Grid) SetPageSize(n int) error {
	if !validPageSize(n) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, n)
	}
	g.state.PageSize = n
	g.state.PageIndex = g.clampPage(g.state.PageIndex, len(g.filtered()))
	return nil
}

// PageCount returns the number of pages of the filtered row set.
func (g *Grid) PageCount() int { return g.pageCount(len(g.filtered())) }

func (g *Grid) pageCount(total int) int {
	if total == 0 {
		return 0
	}
	if total < MinPaginatedRows {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(g.state.PageSize)))
}

func (g *Grid) clampPage(n, total int) int {
	last := g.pageCount(total) - 1
	if n > last {
		n = last
	}
	if n < 0 {
		n = 0
	}
	return n
}

// Rows returns the filtered and sorted rows without pagination.
func (g *Grid) Rows() []Row {
	out := g.filtered()
	g.sortRows(out)
	return out
}

// Page is the renderable result of a grid.
type Page struct {
	Columns        []Column
	Rows           []Row
	Cells          [][]string
	Total          int
	Count          int
	PageIndex      int
	PageSize       int
	PageCount      int
	ShowPagination bool
	Loading        bool
	Empty          bool
	EmptyMessage   string
	State          State
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.PageIndex > 0 }

// HasNext reports whether a next page exists.
func (p Page) HasNext() bool { return p.PageIndex+1 < p.PageCount }

// View computes the visible page.
func (g *Grid) View() Page {
	rows := g.Rows()
	total := len(rows)
	g.state.PageIndex = g.clampPage(g.state.PageIndex, total)

	p := Page{
		Columns:        g.columns,
		Total:          total,
		Count:          len(g.rows),
		PageIndex:      g.state.PageIndex,
		PageSize:       g.state.PageSize,
		PageCount:      g.pageCount(total),
		ShowPagination: total >= MinPaginatedRows,
		Loading:        g.loading,
		Empty:          total == 0,
		EmptyMessage:   g.emptyMessage,
	}
	visible := rows
	if p.ShowPagination {
		start := p.PageIndex * p.PageSize
		end := start + p.PageSize
		if end > total {
			end = total
		}
		visible = rows[start:end]
	}
	p.Rows = visible
	p.Cells = make([][]string, len(visible))
	for i, r := range visible {
		cells := make([]string, len(g.columns))
		for j, c := range g.columns {
			cells[j] = c.DisplayIn(r, g.loc)
		}
		p.Cells[i] = cells
	}
	p.State = g.State()
	return p
}

func (g *Grid) filtered() []Row {
	out := make([]Row, 0, len(g.rows))
	needle := strings.ToLower(strings.TrimSpace(g.state.GlobalFilter))
	for _, r := range g.rows {
		if needle != "" && !g.matchGlobal(r, needle) {
			continue
		}
		if !g.matchColumns(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (g *Grid) matchGlobal(r Row, needle string) bool {
	for _, c := range g.columns {
		if strings.Contains(strings.ToLower(Text(c.Value(r))), needle) {
			return true
		}
		if c.Renderer != nil && strings.Contains(strings.ToLower(c.DisplayIn(r, g.loc)), needle) {
			return true
		}
	}
	return false
}

func (g *Grid) matchColumns(r Row) bool {
	for id, want := range g.state.ColumnFilters {
		c := g.columns[g.byID[id]]
		if !g.matchColumn(c, r, want) {
			return false
		}
	}
	return true
}

func (g *Grid) matchColumn(c Column, r Row, want string) bool {
	switch c.Kind {
	case KindDate:
		if strings.TrimSpace(want) == "" {
			return true
		}
		day, ok := parseTime(want, g.loc)
		if !ok {
			return false
		}
		got, ok := parseTime(c.Value(r), g.loc)
		if !ok {
			return false
		}
		return sameDay(got, day, g.loc)
	case KindSelect:
		return Text(c.Value(r)) == want
	default:
		v := strings.ToLower(want)
		if strings.Contains(strings.ToLower(Text(c.Value(r))), v) {
			return true
		}
		return c.Renderer != nil && strings.Contains(strings.ToLower(c.DisplayIn(r, g.loc)), v)
	}
}

// sameDay compares the calendar days of t and filter as seen in loc.
func sameDay(t, filter time.Time, loc *time.Location) bool {
	fy, fm, fd := filter.In(loc).Date()
	y, m, d := t.In(loc).Date()
	return y == fy && m == fm && d == fd
}

func (g *Grid) sortRows(rows []Row) {
	s := g.state.Sort
	if !s.Active() {
		return
	}
	i, ok := g.byID[s.ColumnID]
	if !ok {
		return
	}
	c := g.columns[i]
	sort.SliceStable(rows, func(a, b int) bool {
		cmp := compare(c, rows[a], rows[b], g.loc)
		if s.Direction == Desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func compare(c Column, a, b Row, loc *time.Location) int {
	va, vb := c.Value(a), c.Value(b)
	if c.Kind == KindDate {
		ta, oka := parseTime(va, loc)
		tb, okb := parseTime(vb, loc)
		if oka && okb {
			return ta.Compare(tb)
		}
	}
	if na, ok := number(va); ok {
		if nb, ok := number(vb); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(strings.ToLower(Text(va)), strings.ToLower(Text(vb)))
}
