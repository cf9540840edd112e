// Package tui provides the interactive book picker.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xdearboy/bookkeeper/internal/catalog"
)

const (
	defaultListWidth  = 72
	defaultListHeight = 20
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// SelectionAction is what the user did in the picker.
type SelectionAction int

const (
	ActionNone SelectionAction = iota
	ActionSelected
	ActionSkipped
	ActionStopped
)

// SelectionResult holds the outcome of a picker session.
type SelectionResult struct {
	Action    SelectionAction
	Selection *catalog.Book
}

type bookItem struct {
	catalog.Book
}

func (i bookItem) Title() string       { return i.Book.Title }
func (i bookItem) Description() string { return i.Book.Author }
func (i bookItem) FilterValue() string { return i.Book.Title + " " + i.Book.Author }

type itemStyles struct {
	normal      lipgloss.Style
	selected    lipgloss.Style
	sourceStyle lipgloss.Style
	titleStyle  lipgloss.Style
	authorStyle lipgloss.Style
	metaStyle   lipgloss.Style
	descStyle   lipgloss.Style
}

func newItemStyles() itemStyles {
	border := lipgloss.Border{
		Top: "-", Bottom: "-", Left: "|", Right: "|",
		TopLeft: "+", TopRight: "+", BottomLeft: "+", BottomRight: "+",
	}
	container := lipgloss.NewStyle().
		Border(border).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Foreground(lipgloss.Color("252"))

	return itemStyles{
		normal: container,
		selected: container.Copy().
			BorderForeground(lipgloss.Color("214")).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("237")),
		sourceStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("110")),
		titleStyle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("254")),
		authorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("178")),
		metaStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("247")).Faint(true),
		descStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("248")),
	}
}

type bookDelegate struct {
	styles itemStyles
}

func (d bookDelegate) Height() int                         { return 7 }
func (d bookDelegate) Spacing() int                        { return 1 }
func (d bookDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d bookDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	book, ok := item.(bookItem)
	if !ok {
		return
	}
	width := m.Width() - 4

	source := "FALLBACK"
	if book.SourceIsRemote {
		source = "REMOTE"
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		d.styles.sourceStyle.Render(fmt.Sprintf("[%s] %s", source, truncate(book.Genre, width-len(source)-3))),
		d.styles.titleStyle.Render(truncate(book.Book.Title, width)),
		d.styles.authorStyle.Render(truncate(book.Author, width)),
		d.styles.metaStyle.Render(formatMetadata(book.Book, width)),
		d.styles.descStyle.Render(truncate(book.Book.Description, width)),
	)

	container := d.styles.normal
	if idx == m.Index() {
		container = d.styles.selected
	}
	_, _ = fmt.Fprint(w, container.Render(content))
}

type model struct {
	list   list.Model
	query  string
	result SelectionResult
}

func newModel(query string, books []catalog.Book) *model {
	items := make([]list.Item, len(books))
	for i, b := range books {
		items[i] = bookItem{Book: b}
	}

	l := list.New(items, bookDelegate{styles: newItemStyles()}, defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	return &model{list: l, query: query, result: SelectionResult{Action: ActionNone}}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if selected, ok := m.list.SelectedItem().(bookItem); ok {
				book := selected.Book
				m.result = SelectionResult{Action: ActionSelected, Selection: &book}
				return m, tea.Quit
			}
		case "s", "esc":
			m.result = SelectionResult{Action: ActionSkipped}
			return m, tea.Quit
		case "ctrl+c", "q":
			m.result = SelectionResult{Action: ActionStopped}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetSize(clamp(defaultListWidth, msg.Width-4, 40), clamp(defaultListHeight, msg.Height-6, 5))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	header := headerStyle.Render(fmt.Sprintf("Results for: %s", m.query))
	help := helpStyle.Render("Up/Down navigate | Enter select | s skip | q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View(), help)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// Select shows books in an interactive list and returns the user's choice.
// With no books there is nothing to choose and ActionSkipped is returned.
func Select(query string, books []catalog.Book) (SelectionResult, error) {
	if len(books) == 0 {
		return SelectionResult{Action: ActionSkipped}, nil
	}

	final, err := runProgram(newModel(query, books))
	if err != nil {
		return SelectionResult{}, err
	}
	if typed, ok := final.(*model); ok {
		return typed.result, nil
	}
	return SelectionResult{}, fmt.Errorf("unexpected program result")
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if width <= 0 || len(runes) <= width {
		return value
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// formatMetadata joins year, page count, publisher and ISBN.
func formatMetadata(b catalog.Book, width int) string {
	var parts []string
	if b.PublishedAt != nil {
		parts = append(parts, fmt.Sprintf("%d", b.PublishedAt.Year()))
	}
	if b.PageCount != nil && *b.PageCount > 0 {
		parts = append(parts, fmt.Sprintf("%d pages", *b.PageCount))
	}
	if b.Publisher != "" {
		parts = append(parts, b.Publisher)
	}
	if b.ISBN != "" {
		parts = append(parts, "ISBN "+b.ISBN)
	}
	if len(parts) == 0 {
		return "No metadata available"
	}
	return truncate(strings.Join(parts, " | "), width)
}

func clamp(defaultValue, available, minimum int) int {
	v := defaultValue
	if available > 0 && available < defaultValue {
		v = available
	}
	return max(v, minimum)
}
