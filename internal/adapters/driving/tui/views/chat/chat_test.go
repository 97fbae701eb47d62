package chat

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// mockChatService implements driving.ChatService for testing.
type mockChatService struct {
	answer *domain.Answer
	err    error
	ctx    context.Context
	asked  []string
	resets int
}

func (m *mockChatService) Ask(ctx context.Context, query string) (*domain.Answer, error) {
	m.ctx = ctx
	m.asked = append(m.asked, query)
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func (m *mockChatService) Search(context.Context, string, int) ([]domain.RetrievalResult, error) {
	return nil, nil
}

func (m *mockChatService) Reset() { m.resets++ }

func (m *mockChatService) History() []domain.Turn { return nil }

func (m *mockChatService) Ingest(context.Context, []domain.FileChange) (*domain.IngestResult, error) {
	return &domain.IngestResult{}, nil
}

func (m *mockChatService) State() domain.IndexState { return domain.IndexStateReady }

func (m *mockChatService) Stats() domain.IndexStats {
	return domain.IndexStats{Path: "/idx/index.db", Chunks: 12}
}

func sampleAnswer() *domain.Answer {
	return &domain.Answer{
		Text: "Foxes are quick.",
		Sources: []domain.RetrievalResult{
			{Chunk: domain.Chunk{ID: "a-0", Source: "/data/notes/a.txt", Position: 0, Content: "The quick fox."}, Score: 0.12},
			{Chunk: domain.Chunk{ID: "b-3", Source: "/data/b.txt", Position: 3, Content: "Lazy dogs."}, Score: 0.4},
		},
	}
}

func newTestView(chat *mockChatService) *View {
	v := NewView(nil, nil, chat)
	v.SetDimensions(100, 30)
	return v
}

// ask types question, submits it and feeds the answer back into the view.
func ask(t *testing.T, v *View, question string) messages.AnswerReceived {
	t.Helper()
	v.SetInput(question)
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(messages.AnswerReceived)
	require.True(t, ok)
	v.Update(msg)
	return msg
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, &mockChatService{})

	require.NotNil(t, v)
	assert.False(t, v.Ready())
	assert.Equal(t, "Initialising...", v.View())
	assert.Equal(t, 12, v.statusbar.ChunkCount())
	assert.Contains(t, v.Transcript(), "get started")
	assert.NotNil(t, v.Init())
}

func TestView_SetDimensions(t *testing.T) {
	v := newTestView(&mockChatService{})

	assert.True(t, v.Ready())
	assert.Equal(t, 100, v.transcript.Width)
	assert.Equal(t, 30-chromeHeight, v.transcript.Height)

	v.Update(tea.WindowSizeMsg{Width: 40, Height: 5})
	assert.Equal(t, 3, v.transcript.Height)
}

func TestView_View(t *testing.T) {
	v := newTestView(&mockChatService{})

	view := v.View()

	assert.Contains(t, view, "ragchat")
	assert.Contains(t, view, "/idx/index.db")
	assert.Contains(t, view, "You:")
	assert.Contains(t, view, "12 chunks indexed")
}

func TestView_Typing(t *testing.T) {
	v := newTestView(&mockChatService{})

	for _, r := range "hi" {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	assert.Equal(t, "hi", v.Input())
}

func TestView_Submit(t *testing.T) {
	chat := &mockChatService{answer: sampleAnswer()}
	v := newTestView(chat)
	v.SetInput("  what about foxes?  ")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.True(t, v.Pending())
	assert.Equal(t, "", v.Input())
	assert.Equal(t, 1, v.Len())
	assert.Equal(t, status.StateThinking, v.Status())
	assert.Contains(t, v.Transcript(), "You: what about foxes?")
	assert.Empty(t, v.LastSources())

	msg := cmd()
	received, ok := msg.(messages.AnswerReceived)
	require.True(t, ok)
	assert.Equal(t, "what about foxes?", received.Question)
	assert.Equal(t, []string{"what about foxes?"}, chat.asked)

	v.Update(received)

	assert.False(t, v.Pending())
	assert.NoError(t, v.Err())
	assert.Equal(t, status.StateReady, v.Status())
	assert.Equal(t, 2, v.statusbar.SourceCount())
	assert.Equal(t, "what about foxes?", v.LastQuestion())
	assert.Len(t, v.LastSources(), 2)

	transcript := v.Transcript()
	assert.Contains(t, transcript, "Foxes are quick.")
	assert.Contains(t, transcript, "[1] notes/a.txt #0")
	assert.Contains(t, transcript, "[2] data/b.txt #3")
}

func TestView_SubmitBlankIgnored(t *testing.T) {
	chat := &mockChatService{answer: sampleAnswer()}
	v := newTestView(chat)
	v.SetInput("   ")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, v.Pending())
	assert.Equal(t, 0, v.Len())
}

func TestView_SubmitWhilePendingIgnored(t *testing.T) {
	v := newTestView(&mockChatService{answer: sampleAnswer()})
	v.SetInput("first")
	_, first := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, first)

	v.SetInput("second")
	_, second := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, second)
	assert.Equal(t, 1, v.Len())
	assert.Equal(t, "second", v.Input())
}

func TestView_AnswerError(t *testing.T) {
	chat := &mockChatService{err: domain.ErrGeneration}
	v := newTestView(chat)

	msg := ask(t, v, "why?")

	assert.ErrorIs(t, msg.Err, domain.ErrGeneration)
	assert.ErrorIs(t, v.Err(), domain.ErrGeneration)
	assert.Equal(t, status.StateError, v.Status())
	assert.Contains(t, v.Transcript(), "Error: ")
	assert.Empty(t, v.LastSources())
	assert.Equal(t, "", v.LastQuestion())
}

func TestView_ErrorThenSuccessKeepsEarlierSources(t *testing.T) {
	chat := &mockChatService{answer: sampleAnswer()}
	v := newTestView(chat)
	ask(t, v, "first")

	chat.err = errors.New("boom")
	ask(t, v, "second")

	assert.Equal(t, 2, v.Len())
	assert.Equal(t, "first", v.LastQuestion())
	assert.Len(t, v.LastSources(), 2)
}

func TestView_UsesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")
	chat := &mockChatService{answer: sampleAnswer()}
	v := newTestView(chat)
	assert.Same(t, v, v.WithContext(ctx))

	ask(t, v, "q")

	assert.Equal(t, "value", chat.ctx.Value(key{}))
}

func TestView_Reset(t *testing.T) {
	chat := &mockChatService{answer: sampleAnswer()}
	v := newTestView(chat)
	ask(t, v, "q")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlR})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ConversationReset{}, cmd())
	assert.Equal(t, 1, chat.resets)
	assert.Equal(t, 0, v.Len())
	assert.Empty(t, v.LastSources())
	assert.Equal(t, "Conversation cleared", v.statusbar.Message())
}

func TestView_ResetWhilePendingIgnored(t *testing.T) {
	chat := &mockChatService{answer: sampleAnswer()}
	v := newTestView(chat)
	v.SetInput("q")
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlR})

	assert.Nil(t, cmd)
	assert.Equal(t, 0, chat.resets)
	assert.Equal(t, 1, v.Len())
}

func TestView_SourcesKey(t *testing.T) {
	v := newTestView(&mockChatService{answer: sampleAnswer()})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Nil(t, cmd, "no answer yet")

	ask(t, v, "q")
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyTab})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewSources}, cmd())
}

func TestView_NoChatService(t *testing.T) {
	v := NewView(nil, nil, nil)
	v.SetDimensions(80, 24)
	v.SetInput("q")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	msg, ok := cmd().(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, msg.Err, ErrNoChatService)

	v.Update(msg)
	assert.Equal(t, status.StateError, v.Status())
}
