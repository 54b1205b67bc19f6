// Package tui is a terminal client over the module grids.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/diewo77/eventdesk/i18n"
	"github.com/diewo77/eventdesk/internal/grid"
	"github.com/diewo77/eventdesk/internal/pages"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4444")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)
)

// maxColumnWidth caps a table column so wide grids still fit.
const maxColumnWidth = 28

type screen int

const (
	screenMenu screen = iota
	screenGrid
)

type moduleItem struct {
	module pages.Module
	lang   string
}

func (i moduleItem) Title() string       { return i18n.T(i.lang, i.module.Title) }
func (i moduleItem) Description() string { return "/" + i.module.Name }
func (i moduleItem) FilterValue() string { return i.module.Name }

// Messages
type loadedMsg struct {
	view *pages.ListView
	err  error
}

type deletedMsg struct {
	view *pages.ListView
	id   string
	err  error
}

// searchMsg fires DebounceInterval after a keystroke. Only the one
// carrying the latest seq is applied.
type searchMsg struct {
	seq  int
	text string
}

// Options configures a Model.
type Options struct {
	Source   pages.Source
	Modules  []pages.Module
	Lang     string
	Location *time.Location
	Logger   *slog.Logger
}

// Model is the bubbletea model of the client.
type Model struct {
	src    pages.Source
	lang   string
	loc    *time.Location
	logger *slog.Logger

	screen  screen
	width   int
	height  int
	menu    list.Model
	table   table.Model
	search  textinput.Model
	spinner spinner.Model

	view      *pages.ListView
	state     grid.State
	page      grid.Page
	sortCol   int
	searching bool
	searchSeq int
	loading   bool
	message   string
}

// New builds the model. Modules default to every registered module.
func New(o Options) Model {
	if o.Lang == "" {
		o.Lang = i18n.DefaultLang
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Modules == nil {
		o.Modules = pages.All()
	}

	items := make([]list.Item, len(o.Modules))
	for i, m := range o.Modules {
		items[i] = moduleItem{module: m, lang: o.Lang}
	}
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	menu := list.New(items, delegate, 0, 0)
	menu.Title = i18n.T(o.Lang, "app.title")
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)
	menu.Styles.Title = titleStyle

	search := textinput.New()
	search.Placeholder = i18n.T(o.Lang, "common.search")
	search.Prompt = "/ "

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return Model{
		src:     o.Source,
		lang:    o.Lang,
		loc:     o.Location,
		logger:  o.Logger,
		menu:    menu,
		table:   table.New(table.WithFocused(true)),
		search:  search,
		spinner: s,
		state:   grid.NewState(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) fetch(v *pages.ListView) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{view: v, err: v.Refresh(context.Background())}
	}
}

func (m Model) remove(v *pages.ListView, id string) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{view: v, id: id, err: v.Delete(context.Background(), id)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.menu.SetSize(msg.Width-2, msg.Height-2)
		m.table.SetHeight(max(msg.Height-8, 3))
		return m, nil

	case loadedMsg:
		if msg.view != m.view || errors.Is(msg.err, pages.ErrStale) || errors.Is(msg.err, pages.ErrClosed) {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.message = msg.err.Error()
		}
		m.rebuild()
		return m, nil

	case deletedMsg:
		if msg.view != m.view {
			return m, nil
		}
		if msg.err != nil {
			m.message = msg.err.Error()
		} else {
			m.message = ""
		}
		m.rebuild()
		return m, nil

	case searchMsg:
		if msg.seq != m.searchSeq || m.view == nil {
			return m, nil
		}
		m.state.GlobalFilter = strings.TrimSpace(msg.text)
		m.state.PageIndex = 0
		m.rebuild()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.screen == screenMenu {
			return m.updateMenu(msg)
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateGrid(msg)
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "enter":
		item, ok := m.menu.SelectedItem().(moduleItem)
		if !ok {
			return m, nil
		}
		return m.open(item.module)
	}
	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

// open switches to the grid of module and starts the first fetch.
func (m Model) open(mod pages.Module) (tea.Model, tea.Cmd) {
	if m.view != nil {
		m.view.Close()
	}
	m.view = pages.NewListView(mod, m.src, m.logger)
	m.screen = screenGrid
	m.state = grid.NewState()
	m.sortCol = 0
	m.searchSeq++
	m.search.SetValue("")
	m.message = ""
	m.loading = true
	m.rebuild()
	return m, m.fetch(m.view)
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.table.Focus()
		m.searchSeq++
		return m, m.debounced(0)
	}
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}
	m.searchSeq++
	return m, tea.Batch(cmd, m.debounced(grid.DebounceInterval))
}

// debounced schedules the search for the current input. A zero delay
// applies it on the next message.
func (m Model) debounced(d time.Duration) tea.Cmd {
	msg := searchMsg{seq: m.searchSeq, text: m.search.Value()}
	if d == 0 {
		return func() tea.Msg { return msg }
	}
	return tea.Tick(d, func(time.Time) tea.Msg { return msg })
}

func (m Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	g := m.grid()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		m.view.Close()
		m.view = nil
		m.screen = screenMenu
		return m, nil
	case "/":
		m.searching = true
		m.table.Blur()
		cmd := m.search.Focus()
		return m, cmd
	case "tab":
		if cols := m.sortable(); len(cols) > 0 {
			m.sortCol = (m.sortCol + 1) % len(cols)
		}
		return m, nil
	case "s":
		cols := m.sortable()
		if len(cols) == 0 {
			return m, nil
		}
		if _, err := g.ToggleSort(cols[m.sortCol].ID); err != nil {
			m.message = err.Error()
			return m, nil
		}
	case "right", "l", "pgdown":
		g.SetPageIndex(m.state.PageIndex + 1)
	case "left", "h", "pgup":
		g.SetPageIndex(m.state.PageIndex - 1)
	case "z":
		if err := g.SetPageSize(nextPageSize(m.state.PageSize)); err != nil {
			m.message = err.Error()
			return m, nil
		}
	case "x":
		g.ResetFilters()
		m.searchSeq++
		m.search.SetValue("")
	case "r":
		m.loading = true
		m.rebuild()
		return m, m.fetch(m.view)
	case "d":
		i := m.table.Cursor()
		if i < 0 || i >= len(m.page.Rows) {
			return m, nil
		}
		return m, m.remove(m.view, m.page.Rows[i].ID())
	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	m.state = g.State()
	m.rebuild()
	return m, nil
}

func (m Model) grid() *grid.Grid {
	return m.view.Grid(m.state, m.loc, i18n.T(m.lang, m.view.Module.EmptyMessage))
}

func (m Model) sortable() []grid.Column {
	if m.view == nil {
		return nil
	}
	var out []grid.Column
	for _, c := range m.view.Module.Columns {
		if !c.HideSort {
			out = append(out, c)
		}
	}
	return out
}

func nextPageSize(n int) int {
	for i, s := range grid.PageSizes {
		if s == n {
			return grid.PageSizes[(i+1)%len(grid.PageSizes)]
		}
	}
	return grid.PageSizes[0]
}

// rebuild recomputes the visible page and loads it into the table.
func (m *Model) rebuild() {
	if m.view == nil {
		return
	}
	m.page = m.grid().View()
	m.state = m.page.State

	cols := make([]table.Column, len(m.page.Columns))
	for i, c := range m.page.Columns {
		title := i18n.T(m.lang, c.Header)
		switch m.state.SortOf(c.ID) {
		case grid.Asc:
			title += " ▲"
		case grid.Desc:
			title += " ▼"
		}
		w := utf8.RuneCountInString(title)
		for _, cells := range m.page.Cells {
			w = max(w, utf8.RuneCountInString(cells[i]))
		}
		cols[i] = table.Column{Title: title, Width: min(w, maxColumnWidth)}
	}
	rows := make([]table.Row, len(m.page.Cells))
	for i, cells := range m.page.Cells {
		rows[i] = table.Row(cells)
	}
	// rows go first: the table renders rows against the current columns.
	// Emptying the rows resets the cursor to -1, so it is restored after.
	cursor := m.table.Cursor()
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	m.table.SetCursor(max(min(cursor, len(rows)-1), 0))
}

func (m Model) View() string {
	if m.screen == screenMenu {
		return m.menu.View()
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(i18n.T(m.lang, m.view.Module.Title)))
	if m.loading {
		b.WriteString(" " + m.spinner.View() + " " + i18n.T(m.lang, "common.loading"))
	}
	b.WriteString("\n")
	if m.searching || m.state.GlobalFilter != "" {
		b.WriteString(m.search.View() + "\n")
	}
	if m.page.Empty {
		b.WriteString(helpStyle.Render(m.page.EmptyMessage) + "\n")
	} else {
		b.WriteString(m.table.View() + "\n")
	}
	b.WriteString(statusBarStyle.Render(m.status()) + "\n")
	if m.message != "" {
		b.WriteString(errorStyle.Render(m.message) + "\n")
	}
	b.WriteString(helpStyle.Render(i18n.T(m.lang, "tui.help")))
	return b.String()
}

func (m Model) status() string {
	parts := []string{fmt.Sprintf("%d/%d", m.page.Total, m.page.Count)}
	if m.page.ShowPagination {
		parts = append(parts,
			fmt.Sprintf("%s %d %s %d", i18n.T(m.lang, "common.page"), m.page.PageIndex+1, i18n.T(m.lang, "common.of"), m.page.PageCount),
			fmt.Sprintf("%s %d", i18n.T(m.lang, "common.per_page"), m.page.PageSize))
	}
	if cols := m.sortable(); len(cols) > 0 {
		parts = append(parts, "⇅ "+i18n.T(m.lang, cols[m.sortCol%len(cols)].Header))
	}
	return strings.Join(parts, " · ")
}
