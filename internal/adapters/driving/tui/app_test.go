package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func answerWithSources() *domain.Answer {
	return &domain.Answer{
		Text: "It is blue.",
		Sources: []domain.RetrievalResult{
			{Chunk: domain.Chunk{ID: "sky-0", Source: "/docs/sky.txt", Content: "The sky is blue."}, Score: 0.05},
		},
	}
}

func newTestApp(t *testing.T, chat *MockChatService) *App {
	t.Helper()
	app, err := NewApp(&Ports{Chat: chat})
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

// askQuestion types a question, submits it and delivers the answer.
func askQuestion(t *testing.T, app *App, question string) {
	t.Helper()
	for _, r := range question {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(&Ports{Chat: &MockChatService{}})

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.ErrorIs(t, err, ErrMissingChatService)
	assert.Nil(t, app)
}

func TestApp_Init(t *testing.T) {
	app, _ := NewApp(&Ports{Chat: &MockChatService{}})

	assert.NotNil(t, app.Init())
}

func TestApp_WindowSize(t *testing.T) {
	app, _ := NewApp(&Ports{Chat: &MockChatService{}})

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Same(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "ragchat")
}

func TestApp_QuitKeys(t *testing.T) {
	for _, keyType := range []tea.KeyType{tea.KeyCtrlC, tea.KeyCtrlD} {
		app := newTestApp(t, &MockChatService{})

		_, cmd := app.Update(tea.KeyMsg{Type: keyType})

		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestApp_QuitMessage(t *testing.T) {
	app := newTestApp(t, &MockChatService{})

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_TypedQIsNotQuit(t *testing.T) {
	chat := &MockChatService{}
	app := newTestApp(t, chat)

	askQuestion(t, app, "q")

	assert.Equal(t, []string{"q"}, chat.Asked())
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_AskFlow(t *testing.T) {
	chat := &MockChatService{}
	app := newTestApp(t, chat)

	askQuestion(t, app, "hello")

	assert.Equal(t, []string{"hello"}, chat.Asked())
	assert.NoError(t, app.Err())
	assert.Contains(t, app.View(), "answer to hello")
}

func TestApp_AskError(t *testing.T) {
	chat := &MockChatService{AskFunc: func(context.Context, string) (*domain.Answer, error) {
		return nil, domain.ErrGeneration
	}}
	app := newTestApp(t, chat)

	askQuestion(t, app, "hello")

	assert.ErrorIs(t, app.Err(), domain.ErrGeneration)
}

func TestApp_WithContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	var got context.Context
	chat := &MockChatService{AskFunc: func(ctx context.Context, q string) (*domain.Answer, error) {
		got = ctx
		return &domain.Answer{Text: q}, nil
	}}
	app := newTestApp(t, chat)

	assert.Same(t, app, app.WithContext(ctx))
	askQuestion(t, app, "x")

	require.NotNil(t, got)
	assert.Equal(t, "v", got.Value(key{}))
}

func TestApp_SourcesNavigation(t *testing.T) {
	chat := &MockChatService{AskFunc: func(context.Context, string) (*domain.Answer, error) {
		return answerWithSources(), nil
	}}
	app := newTestApp(t, chat)
	askQuestion(t, app, "what colour is the sky")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewSources, app.CurrentView())
	view := app.View()
	assert.Contains(t, view, "what colour is the sky")
	assert.Contains(t, view, "docs/sky.txt")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app.Update(cmd())
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_AnswerDeliveredWhileOnOtherView(t *testing.T) {
	chat := &MockChatService{}
	app := newTestApp(t, chat)
	for _, r := range "late" {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	app.Update(tea.KeyMsg{Type: tea.KeyF1})
	require.Equal(t, messages.ViewHelp, app.CurrentView())
	app.Update(cmd())
	app.Update(tea.KeyMsg{Type: tea.KeyF1})

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.Contains(t, app.View(), "answer to late")
}

func TestApp_Reset(t *testing.T) {
	chat := &MockChatService{AskFunc: func(context.Context, string) (*domain.Answer, error) {
		return answerWithSources(), nil
	}}
	app := newTestApp(t, chat)
	askQuestion(t, app, "sky")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, 1, chat.Resets())
	assert.NotContains(t, app.View(), "It is blue.")

	// No sources left to browse.
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Nil(t, cmd)
}

func TestApp_Help(t *testing.T) {
	app := newTestApp(t, &MockChatService{})

	app.Update(tea.KeyMsg{Type: tea.KeyF1})

	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	view := app.View()
	assert.Contains(t, view, "Help")
	assert.Contains(t, view, "ctrl+r")
	assert.Contains(t, view, "reset")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, &MockChatService{})

	app.Update(messages.ErrorOccurred{Err: domain.ErrInvalidQuery})

	assert.ErrorIs(t, app.Err(), domain.ErrInvalidQuery)
	assert.Contains(t, app.View(), "Error:")
}

func TestApp_ViewChangedToHelp(t *testing.T) {
	app := newTestApp(t, &MockChatService{})

	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	assert.Equal(t, messages.ViewHelp, app.CurrentView())
}
