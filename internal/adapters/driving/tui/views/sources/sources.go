// Package sources provides the view listing the passages behind an answer.
package sources

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var (
	wordRe     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// View lists retrieved passages and shows the selected one in full.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	list      *list.SourceList
	content   viewport.Model
	statusbar *status.Bar

	question string
	width    int
	height   int
	ready    bool
}

// NewView creates an empty sources view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetState(status.StateSources)

	v := &View{
		styles:    s,
		keymap:    km,
		list:      list.NewSourceList(s),
		content:   viewport.New(80, 8),
		statusbar: bar,
		width:     80,
		height:    24,
	}
	v.refresh()
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetSources replaces the listed passages and the question they answered.
func (v *View) SetSources(question string, results []domain.RetrievalResult) {
	v.question = question
	v.list.SetResults(results)
	v.statusbar.SetSourceCount(len(results))
	v.refresh()
}

// Update handles messages for the sources view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		k := msg.String()
		switch {
		case keymap.Matches(k, v.keymap.Back):
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewChat} }
		case keymap.Matches(k, v.keymap.Up), keymap.Matches(k, v.keymap.Down):
			v.list, _ = v.list.Update(msg)
			v.refresh()
			return v, nil
		case keymap.Matches(k, v.keymap.ScrollUp), keymap.Matches(k, v.keymap.ScrollDown):
			var cmd tea.Cmd
			v.content, cmd = v.content.Update(msg)
			return v, cmd
		}
	}
	return v, nil
}

func (v *View) refresh() {
	v.content.SetContent(v.renderSelected())
	v.content.GotoTop()
}

func (v *View) renderSelected() string {
	r := v.list.SelectedResult()
	if r == nil {
		return v.styles.Muted.Render("Nothing selected")
	}

	title := v.styles.Subtitle.Render(fmt.Sprintf("%s #%d", r.Chunk.Source, r.Chunk.Position)) +
		"  " + v.styles.Muted.Render(fmt.Sprintf("distance %.4f", r.Score))
	body := v.highlight(r.Chunk.Content)
	return title + "\n\n" + lipgloss.NewStyle().Width(max(v.width-4, 20)).Render(body)
}

// highlight marks the sentence sharing the most words with the question.
func (v *View) highlight(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}

	query := wordSet(v.question)
	if len(query) == 0 {
		return strings.Join(trimAll(sentences), " ")
	}

	best, bestScore := 0, -1
	for i, s := range sentences {
		if score := overlap(query, s); score > bestScore {
			best, bestScore = i, score
		}
	}

	out := trimAll(sentences)
	if bestScore > 0 {
		out[best] = v.styles.Warning.Bold(true).Render(out[best])
	}
	return strings.Join(out, " ")
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func wordSet(s string) map[string]struct{} {
	words := wordRe.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func overlap(query map[string]struct{}, sentence string) int {
	score := 0
	for w := range wordSet(sentence) {
		if _, ok := query[w]; ok {
			score++
		}
	}
	return score
}

// View renders the sources view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("Sources")
	if v.question != "" {
		header += "  " + v.styles.Muted.Render(v.question)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		v.list.View(),
		"",
		v.styles.Border.Render(v.content.View()),
		v.statusbar.View(),
	)
}

// SetDimensions splits the height between the list and the passage.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	listHeight := max(height/2-2, 4)
	v.list.SetDimensions(width, listHeight)
	v.content.Width = max(width-2, 20)
	v.content.Height = max(height-listHeight-7, 3)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Selected returns the selected passage, or nil when there are none.
func (v *View) Selected() *domain.RetrievalResult {
	return v.list.SelectedResult()
}

// Count returns the number of listed passages.
func (v *View) Count() int {
	return v.list.Count()
}

// Content returns the rendered passage.
func (v *View) Content() string {
	return v.renderSelected()
}
