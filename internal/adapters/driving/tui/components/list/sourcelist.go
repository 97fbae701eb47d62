// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// linesPerItem is the rendered height of one source.
const linesPerItem = 2

// SourceList displays retrieved passages in a navigable list.
type SourceList struct {
	results  []domain.RetrievalResult
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates an empty source list.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list, scrolled so the selection stays visible.
func (l *SourceList) View() string {
	if len(l.results) == 0 {
		return l.styles.Muted.Render("No sources")
	}

	visible := max((l.height-2)/linesPerItem, 1)
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.results))

	lines := make([]string, 0, (end-start)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.results))), "")
	for i := start; i < end; i++ {
		lines = append(lines, l.renderItem(i, &l.results[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *SourceList) renderItem(index int, r *domain.RetrievalResult) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	label := fmt.Sprintf("[%d] %s #%d", index+1, DisplayPath(r.Chunk.Source), r.Chunk.Position)
	label = truncate(label, max(l.width-16, 10))
	distance := fmt.Sprintf("%.4f", r.Score)

	var title string
	if index == l.selected {
		title = l.styles.Selected.Render(fmt.Sprintf("%s%s  %s", indicator, label, distance))
	} else {
		title = l.styles.Normal.Render(indicator+label+"  ") + l.styles.Muted.Render(distance)
	}

	preview := strings.Join(strings.Fields(r.Chunk.Content), " ")
	preview = truncate(preview, max(l.width-6, 20))
	return title + "\n" + l.styles.Muted.Render("    "+preview)
}

// DisplayPath shortens a source path to its last two elements.
func DisplayPath(path string) string {
	dir, file := filepath.Split(path)
	parent := filepath.Base(filepath.Clean(dir))
	if dir == "" || parent == "." || parent == string(filepath.Separator) {
		return file
	}
	return filepath.Join(parent, file)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetResults replaces the listed sources and selects the first.
func (l *SourceList) SetResults(results []domain.RetrievalResult) {
	l.results = results
	l.selected = 0
}

// Results returns the listed sources.
func (l *SourceList) Results() []domain.RetrievalResult {
	return l.results
}

// Selected returns the index of the selected source.
func (l *SourceList) Selected() int {
	return l.selected
}

// SelectedResult returns the selected source, or nil if the list is empty.
func (l *SourceList) SelectedResult() *domain.RetrievalResult {
	if l.selected < 0 || l.selected >= len(l.results) {
		return nil
	}
	return &l.results[l.selected]
}

// MoveUp moves selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.results)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *SourceList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of sources.
func (l *SourceList) Count() int {
	return len(l.results)
}

// IsEmpty returns whether the list is empty.
func (l *SourceList) IsEmpty() bool {
	return len(l.results) == 0
}
