package grid

import (
	"errors"
	"time"
)

// DebounceInterval is how long input layers wait after the last keystroke
// before applying a global filter.
const DebounceInterval = 500 * time.Millisecond

// PageSizes are the page sizes a grid accepts.
var PageSizes = []int{10, 25, 50, 75, 100}

// DefaultPageSize is the initial page size of a new grid.
const DefaultPageSize = 10

// MinPaginatedRows is the filtered row count from which pagination applies.
// Smaller result sets are shown whole.
const MinPaginatedRows = 10

var (
	ErrUnknownColumn   = errors.New("grid: unknown column")
	ErrSortDisabled    = errors.New("grid: column is not sortable")
	ErrInvalidPageSize = errors.New("grid: invalid page size")
)

// Direction is the sort direction of a column.
type Direction int

const (
	None Direction = iota
	Asc
	Desc
)

func (d Direction) String() string {
	switch d {
	case Asc:
		return "asc"
	case Desc:
		return "desc"
	default:
		return ""
	}
}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(s string) Direction {
	switch s {
	case "asc":
		return Asc
	case "desc":
		return Desc
	default:
		return None
	}
}

// next cycles none -> asc -> desc -> none.
func (d Direction) next() Direction {
	switch d {
	case None:
		return Asc
	case Asc:
		return Desc
	default:
		return None
	}
}

// Sort is the single-column sort of a grid.
type Sort struct {
	ColumnID  string
	Direction Direction
}

// Active reports whether a sort is applied.
func (s Sort) Active() bool { return s.ColumnID != "" && s.Direction != None }

// State is the UI state owned by a grid.
type State struct {
	GlobalFilter  string
	ColumnFilters map[string]string
	Sort          Sort
	PageIndex     int
	PageSize      int
}

// NewState returns the state of a freshly mounted grid.
func NewState() State {
	return State{ColumnFilters: map[string]string{}, PageSize: DefaultPageSize}
}

func validPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

func (s State) clone() State {
	out := s
	out.ColumnFilters = make(map[string]string, len(s.ColumnFilters))
	for k, v := range s.ColumnFilters {
		out.ColumnFilters[k] = v
	}
	return out
}
