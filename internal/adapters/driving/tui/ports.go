package tui

import (
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ports holds the driving ports the TUI talks to.
type Ports struct {
	// Chat answers questions and holds the conversation.
	Chat driving.ChatService
}

// Validate checks that all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
