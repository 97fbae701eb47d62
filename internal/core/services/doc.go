// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// ChatService is the question answering entry point. It owns a VectorStore
// whose lifecycle is driven by Bootstrap, and a conversation memory.
// SettingsService resolves configuration and provider credentials.
package services
