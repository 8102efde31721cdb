package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/muurk/cmtrace/internal/symbols"
)

// symbolItem wraps a symbol entry for use with bubbles/list
type symbolItem struct {
	entry symbols.Entry
}

// FilterValue matches on the name, demangled name and address
func (s symbolItem) FilterValue() string {
	return fmt.Sprintf("%s %s 0x%08x", s.entry.Name, s.entry.Demangled, s.entry.Address)
}

func (s symbolItem) Title() string {
	return s.entry.DisplayName()
}

func (s symbolItem) Description() string {
	return fmt.Sprintf("0x%08x • %s • %s", s.entry.Address, humanize.IBytes(uint64(s.entry.Size)), s.entry.Kind)
}

// keyMap defines key bindings for the list screen
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Filter    key.Binding
	Details   key.Binding
	Functions key.Binding
	Back      key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Filter, k.Details, k.Functions, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Filter},
		{k.Details, k.Functions, k.Quit},
	}
}

// detailKeyMap is active while an entry's details are shown
type detailKeyMap struct {
	Back key.Binding
	Quit key.Binding
}

func (k detailKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Back, k.Quit}
}

func (k detailKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Back, k.Quit}}
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Functions: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "functions only"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Model is the symbol browser state.
type Model struct {
	table *symbols.Table

	List          list.Model
	FunctionsOnly bool
	// Detail is the entry being inspected, nil on the list screen
	Detail *symbols.Entry

	Width  int
	Height int
	Help   help.Model
	Keys   keyMap
}

// NewModel creates a browser over table.
func NewModel(table *symbols.Table) Model {
	delegate := list.NewDefaultDelegate()
	l := list.New(nil, delegate, defaultWidth-4, defaultHeight-chromeHeight)
	l.Title = "Symbols"
	l.Styles.Title = titleStyle
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	m := Model{
		table:  table,
		List:   l,
		Width:  defaultWidth,
		Height: defaultHeight,
		Help:   help.New(),
		Keys:   newKeyMap(),
	}
	m.List.SetItems(m.items())
	return m
}

func (m Model) items() []list.Item {
	var entries []symbols.Entry
	if m.FunctionsOnly {
		entries = m.table.Functions()
	} else {
		entries = m.table.Entries()
	}
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = symbolItem{entry: e}
	}
	return items
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.List.SetSize(max(msg.Width-4, 0), max(msg.Height-chromeHeight, 0))
		return m, nil

	case tea.KeyMsg:
		if m.Detail != nil {
			return m.updateDetail(msg)
		}
		// While the filter input is focused every key belongs to it.
		if m.List.FilterState() != list.Filtering {
			switch {
			case key.Matches(msg, m.Keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, m.Keys.Details):
				if item, ok := m.List.SelectedItem().(symbolItem); ok {
					e := item.entry
					m.Detail = &e
				}
				return m, nil
			case key.Matches(msg, m.Keys.Functions):
				m.FunctionsOnly = !m.FunctionsOnly
				cmd := m.List.SetItems(m.items())
				m.List.ResetSelected()
				return m, cmd
			}
		}
	}

	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Back), key.Matches(msg, m.Keys.Details):
		m.Detail = nil
	}
	return m, nil
}

// View renders the current screen
func (m Model) View() string {
	width := m.Width
	if width == 0 {
		width = defaultWidth
	}

	if m.Detail != nil {
		keys := detailKeyMap{Back: m.Keys.Back, Quit: m.Keys.Quit}
		return renderContainer(renderDetail(*m.Detail), m.Help.View(keys), width)
	}

	status := fmt.Sprintf("%s of %s symbols",
		humanize.Comma(int64(len(m.List.VisibleItems()))),
		humanize.Comma(int64(m.table.Len())))
	if m.FunctionsOnly {
		status += " (functions only)"
	}
	content := lipgloss.JoinVertical(lipgloss.Left, m.List.View(), statusStyle.Render(status))
	return renderContainer(content, m.Help.View(m.Keys), width)
}

func renderDetail(e symbols.Entry) string {
	rows := [][2]string{
		{"Name", e.Name},
	}
	if e.Demangled != "" {
		rows = append(rows, [2]string{"Demangled", e.Demangled})
	}
	rows = append(rows,
		[2]string{"Address", fmt.Sprintf("0x%08x", e.Address)},
		[2]string{"Size", fmt.Sprintf("0x%x (%s)", e.Size, humanize.IBytes(uint64(e.Size)))},
		[2]string{"End", fmt.Sprintf("0x%08x", e.Address+e.Size)},
		[2]string{"Kind", e.Kind},
	)
	if e.Binding != "" {
		rows = append(rows, [2]string{"Binding", e.Binding})
	}
	if e.Object != "" {
		rows = append(rows, [2]string{"Object", e.Object})
	}

	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(detailKeyStyle.Render(r[0]))
		b.WriteString(detailValueStyle.Render(r[1]))
	}
	return detailBoxStyle.Render(b.String())
}

// Run starts the browser on the alternate screen and blocks until the
// user quits.
func Run(table *symbols.Table) error {
	p := tea.NewProgram(NewModel(table), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
