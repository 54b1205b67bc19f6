package grid

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names. Column filters use "f.<column id>".
const (
	ParamSearch = "q"
	ParamSort   = "sort"
	ParamDir    = "dir"
	ParamPage   = "page"
	ParamSize   = "size"

	filterPrefix = "f."
)

// StateFromQuery decodes grid state from URL query values. Pages are
// 1-based in URLs. Malformed values fall back to defaults.
func StateFromQuery(q url.Values) State {
	s := NewState()
	s.GlobalFilter = strings.TrimSpace(q.Get(ParamSearch))
	for k, vs := range q {
		if !strings.HasPrefix(k, filterPrefix) || len(vs) == 0 {
			continue
		}
		if v := strings.TrimSpace(vs[0]); v != "" {
			s.ColumnFilters[strings.TrimPrefix(k, filterPrefix)] = v
		}
	}
	if col := q.Get(ParamSort); col != "" {
		if dir := ParseDirection(q.Get(ParamDir)); dir != None {
			s.Sort = Sort{ColumnID: col, Direction: dir}
		}
	}
	if n, err := strconv.Atoi(q.Get(ParamPage)); err == nil && n > 1 {
		s.PageIndex = n - 1
	}
	if n, err := strconv.Atoi(q.Get(ParamSize)); err == nil && validPageSize(n) {
		s.PageSize = n
	}
	return s
}

// Query encodes the state as URL query values, omitting defaults.
func (s State) Query() url.Values {
	q := url.Values{}
	if s.GlobalFilter != "" {
		q.Set(ParamSearch, s.GlobalFilter)
	}
	for id, v := range s.ColumnFilters {
		if v != "" {
			q.Set(filterPrefix+id, v)
		}
	}
	if s.Sort.Active() {
		q.Set(ParamSort, s.Sort.ColumnID)
		q.Set(ParamDir, s.Sort.Direction.String())
	}
	if s.PageIndex > 0 {
		q.Set(ParamPage, strconv.Itoa(s.PageIndex+1))
	}
	if s.PageSize != 0 && s.PageSize != DefaultPageSize {
		q.Set(ParamSize, strconv.Itoa(s.PageSize))
	}
	return q
}

// WithPage returns the encoded state pointing at page index n.
func (s State) WithPage(n int) string {
	c := s.clone()
	c.PageIndex = n
	return c.Query().Encode()
}

// WithSortToggled returns the encoded state after a header click on
// columnID. Pagination is kept.
func (s State) WithSortToggled(columnID string) string {
	c := s.clone()
	dir := Asc
	if c.Sort.ColumnID == columnID {
		dir = c.Sort.Direction.next()
	}
	if dir == None {
		c.Sort = Sort{}
	} else {
		c.Sort = Sort{ColumnID: columnID, Direction: dir}
	}
	return c.Query().Encode()
}

// SortOf returns the direction applied to columnID.
func (s State) SortOf(columnID string) Direction {
	if s.Sort.ColumnID == columnID {
		return s.Sort.Direction
	}
	return None
}

// Reset returns the encoded state with every filter cleared. Sort and
// pagination are kept.
func (s State) Reset() string {
	c := s.clone()
	c.GlobalFilter = ""
	c.ColumnFilters = map[string]string{}
	return c.Query().Encode()
}
