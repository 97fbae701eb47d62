// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// chromeHeight is the number of lines around the transcript:
// title, blank, bordered input (3), status bar.
const chromeHeight = 6

// exchange is one question and its outcome. Both answer and err are nil
// while the question is in flight.
type exchange struct {
	question string
	answer   *domain.Answer
	err      error
}

// View shows the conversation transcript above a question input.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	transcript viewport.Model
	statusbar  *status.Bar

	chat driving.ChatService
	ctx  context.Context

	exchanges []exchange
	pending   bool
	err       error

	width  int
	height int
	ready  bool
}

// NewView creates a chat view backed by chat.
func NewView(s *styles.Styles, km *keymap.KeyMap, chat driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		transcript: viewport.New(80, 24-chromeHeight),
		statusbar:  status.NewBar(s, km),
		chat:       chat,
		ctx:        context.Background(),
		width:      80,
		height:     24,
	}
	if chat != nil {
		v.statusbar.SetChunkCount(chat.Stats().Chunks)
	}
	v.refresh()
	return v
}

// WithContext sets the context questions are asked with.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Ask):
		return v, v.submit()

	case keymap.Matches(k, v.keymap.Reset):
		if v.pending || v.chat == nil {
			return v, nil
		}
		v.chat.Reset()
		v.exchanges = nil
		v.err = nil
		v.statusbar.Clear()
		v.statusbar.SetMessage("Conversation cleared")
		v.refresh()
		return v, func() tea.Msg { return messages.ConversationReset{} }

	case keymap.Matches(k, v.keymap.Sources):
		if len(v.LastSources()) == 0 {
			return v, nil
		}
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewSources} }

	case keymap.Matches(k, v.keymap.ScrollUp), keymap.Matches(k, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed question. Only one question is in flight at a time.
func (v *View) submit() tea.Cmd {
	question := v.input.Question()
	if question == "" || v.pending {
		return nil
	}
	if v.chat == nil {
		return func() tea.Msg { return messages.ErrorOccurred{Err: ErrNoChatService} }
	}

	v.pending = true
	v.err = nil
	v.exchanges = append(v.exchanges, exchange{question: question})
	v.input.Reset()
	v.statusbar.SetMessage("")
	v.statusbar.SetState(status.StateThinking)
	v.refresh()
	return v.ask(question)
}

func (v *View) ask(question string) tea.Cmd {
	chat, ctx := v.chat, v.ctx
	return func() tea.Msg {
		answer, err := chat.Ask(ctx, question)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.pending = false
	if n := len(v.exchanges); n > 0 && v.exchanges[n-1].question == msg.Question {
		v.exchanges[n-1].answer = msg.Answer
		v.exchanges[n-1].err = msg.Err
	}

	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
	} else {
		v.err = nil
		v.statusbar.Clear()
		if msg.Answer != nil {
			v.statusbar.SetSourceCount(len(msg.Answer.Sources))
		}
	}
	v.refresh()
}

// refresh re-renders the transcript and scrolls to the latest exchange.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.exchanges) == 0 {
		return v.styles.Muted.Render("Ask a question about your documents to get started.")
	}

	wrap := max(v.width-2, 20)
	blocks := make([]string, 0, len(v.exchanges))
	for _, ex := range v.exchanges {
		var b strings.Builder
		b.WriteString(v.styles.Question.Width(wrap).Render("You: " + ex.question))
		b.WriteString("\n")

		switch {
		case ex.err != nil:
			b.WriteString(v.styles.Error.Width(wrap).Render("Error: " + ex.err.Error()))
		case ex.answer == nil:
			b.WriteString(v.styles.Muted.Render("  ..."))
		default:
			b.WriteString(v.styles.Answer.Width(wrap).Render(ex.answer.Text))
			if c := v.renderCitations(ex.answer.Sources); c != "" {
				b.WriteString("\n")
				b.WriteString(v.styles.Citation.Width(wrap).Render(c))
			}
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func (v *View) renderCitations(sources []domain.RetrievalResult) string {
	refs := make([]string, len(sources))
	for i, s := range sources {
		refs[i] = fmt.Sprintf("[%d] %s #%d", i+1, list.DisplayPath(s.Chunk.Source), s.Chunk.Position)
	}
	return strings.Join(refs, "  ")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("ragchat")
	if v.chat != nil {
		if path := v.chat.Stats().Path; path != "" {
			header += "  " + v.styles.Muted.Render(path)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		v.transcript.View(),
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.transcript.Width = width
	v.transcript.Height = max(height-chromeHeight, 3)
	v.refresh()
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Pending reports whether a question is waiting for its answer.
func (v *View) Pending() bool {
	return v.pending
}

// Err returns the error of the latest question, if any.
func (v *View) Err() error {
	return v.err
}

// Input returns the current input value.
func (v *View) Input() string {
	return v.input.Value()
}

// SetInput sets the input value.
func (v *View) SetInput(value string) {
	v.input.SetValue(value)
}

// Transcript returns the rendered conversation.
func (v *View) Transcript() string {
	return v.renderTranscript()
}

// Len returns the number of exchanges shown.
func (v *View) Len() int {
	return len(v.exchanges)
}

// LastQuestion returns the most recent answered question.
func (v *View) LastQuestion() string {
	if ex := v.lastAnswered(); ex != nil {
		return ex.question
	}
	return ""
}

// LastSources returns the passages behind the most recent answer.
func (v *View) LastSources() []domain.RetrievalResult {
	if ex := v.lastAnswered(); ex != nil {
		return ex.answer.Sources
	}
	return nil
}

func (v *View) lastAnswered() *exchange {
	for i := len(v.exchanges) - 1; i >= 0; i-- {
		if v.exchanges[i].answer != nil {
			return &v.exchanges[i]
		}
	}
	return nil
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}
