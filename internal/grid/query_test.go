package grid

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateQueryRoundTrip(t *testing.T) {
	s := NewState()
	s.GlobalFilter = "boda"
	s.ColumnFilters["status"] = "paid"
	s.Sort = Sort{ColumnID: "date", Direction: Desc}
	s.PageIndex = 2
	s.PageSize = 50

	got := StateFromQuery(s.Query())
	assert.Equal(t, s, got)
}

func TestStateFromQueryDefaults(t *testing.T) {
	q, _ := url.ParseQuery("page=abc&size=13&sort=name&dir=sideways")
	s := StateFromQuery(q)
	assert.Equal(t, 0, s.PageIndex)
	assert.Equal(t, DefaultPageSize, s.PageSize)
	assert.False(t, s.Sort.Active())
}

func TestWithStateDropsUnknownColumns(t *testing.T) {
	q, _ := url.ParseQuery("f.ghost=1&f.name=ana&sort=actions&dir=asc")
	g := New(customerColumns(), WithState(StateFromQuery(q)))
	st := g.State()
	assert.Equal(t, map[string]string{"name": "ana"}, st.ColumnFilters)
	assert.False(t, st.Sort.Active())
}

func TestWithSortToggled(t *testing.T) {
	s := NewState()
	q1, _ := url.ParseQuery(s.WithSortToggled("name"))
	s1 := StateFromQuery(q1)
	assert.Equal(t, Asc, s1.SortOf("name"))

	q2, _ := url.ParseQuery(s1.WithSortToggled("name"))
	s2 := StateFromQuery(q2)
	assert.Equal(t, Desc, s2.SortOf("name"))

	q3, _ := url.ParseQuery(s2.WithSortToggled("name"))
	assert.Equal(t, None, StateFromQuery(q3).SortOf("name"))
}

func TestResetLinkKeepsSortAndPaging(t *testing.T) {
	q, _ := url.ParseQuery("q=ana&f.name=x&sort=name&dir=desc&page=3&size=25")
	s := StateFromQuery(q)
	r, _ := url.ParseQuery(s.Reset())
	got := StateFromQuery(r)
	assert.Empty(t, got.GlobalFilter)
	assert.Empty(t, got.ColumnFilters)
	assert.Equal(t, Desc, got.SortOf("name"))
	assert.Equal(t, 2, got.PageIndex)
	assert.Equal(t, 25, got.PageSize)
}
