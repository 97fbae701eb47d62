package tui

import "errors"

// Errors returned when the TUI cannot be constructed.
var (
	ErrMissingChatService = errors.New("tui: chat service is required")
	ErrInvalidPorts       = errors.New("tui: invalid ports configuration")
)
