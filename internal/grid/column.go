package grid

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one record of a collection as decoded from the backend.
// Nested objects stay as map[string]any and are reached with dotted keys.
type Row map[string]any

// ID returns the row's "id" field as a string.
func (r Row) ID() string { return Text(r["id"]) }

// Lookup resolves a dotted key ("customer.name") against the row.
func (r Row) Lookup(key string) any {
	if key == "" {
		return nil
	}
	var cur any = map[string]any(r)
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

// Kind selects the filter semantics of a column.
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindSelect
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindSelect:
		return "select"
	case KindCustom:
		return "custom"
	default:
		return "text"
	}
}

// Renderer turns a column value into display text.
type Renderer interface {
	Render(value any, row Row) string
}

// ZonedRenderer is a Renderer whose output depends on the grid location.
type ZonedRenderer interface {
	Renderer
	RenderIn(value any, row Row, loc *time.Location) string
}

// RendererFunc adapts a plain function to Renderer.
type RendererFunc func(value any, row Row) string

func (f RendererFunc) Render(value any, row Row) string { return f(value, row) }

// Column describes how one field of a Row is displayed, filtered and sorted.
type Column struct {
	ID     string
	Header string
	// Key is a dotted path into the row. Ignored when Derive is set.
	Key      string
	Derive   func(Row) any
	Kind     Kind
	Options  []string
	Renderer Renderer
	HideSort bool
}

// Value returns the raw accessor value of the column for row.
func (c Column) Value(row Row) any {
	if c.Derive != nil {
		return c.Derive(row)
	}
	key := c.Key
	if key == "" {
		key = c.ID
	}
	return row.Lookup(key)
}

// Display returns the rendered cell text with dates shown in UTC.
func (c Column) Display(row Row) string { return c.DisplayIn(row, time.UTC) }

// DisplayIn returns the rendered cell text. Date values are shown as days
// in loc. Columns without a renderer fall back to the string-coerced value.
func (c Column) DisplayIn(row Row, loc *time.Location) string {
	v := c.Value(row)
	if zr, ok := c.Renderer.(ZonedRenderer); ok {
		return zr.RenderIn(v, row, loc)
	}
	if c.Renderer != nil {
		return c.Renderer.Render(v, row)
	}
	if c.Kind == KindDate {
		if t, ok := parseTime(v, loc); ok {
			return t.In(loc).Format(DateLayout)
		}
	}
	return Text(v)
}

// DateLayout is the calendar-day format used by date filters and cells.
const DateLayout = "2006-01-02"

// Text coerces an accessor value to its string form. nil becomes "".
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case decimal.Decimal:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// number reports the numeric value of v when it has one. Strings are not
// parsed so that codes like "0012" keep sorting lexically.
func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	case decimal.Decimal:
		f, _ := x.Float64()
		return f, true
	case interface{ Float64() (float64, error) }:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// parseTime reads time-like values. Strings without a zone are read as
// wall-clock time in loc.
func parseTime(v any, loc *time.Location) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, !x.IsZero()
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Money renders numeric values with two decimals.
var Money = RendererFunc(func(v any, _ Row) string {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.StringFixed(2)
	case string:
		d, err := decimal.NewFromString(x)
		if err != nil {
			return x
		}
		return d.StringFixed(2)
	}
	if f, ok := number(v); ok {
		return decimal.NewFromFloat(f).StringFixed(2)
	}
	return Text(v)
})

// DateFormat renders time-like values with the given layout.
func DateFormat(layout string) Renderer { return dateFormat(layout) }

type dateFormat string

func (f dateFormat) Render(v any, row Row) string { return f.RenderIn(v, row, time.UTC) }

func (f dateFormat) RenderIn(v any, _ Row, loc *time.Location) string {
	if t, ok := parseTime(v, loc); ok {
		return t.In(loc).Format(string(f))
	}
	return Text(v)
}

// Labels renders enumerated values through a lookup table, passing unknown
// values through unchanged.
func Labels(m map[string]string) Renderer {
	return RendererFunc(func(v any, _ Row) string {
		s := Text(v)
		if l, ok := m[s]; ok {
			return l
		}
		return s
	})
}
