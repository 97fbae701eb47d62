// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Maps text to fixed-length vectors
//   - LLMService: Maps a prompt to generated text
//   - VectorIndex: Nearest-neighbour oracle over vectors (flat L2)
//   - IndexStore: Durable snapshots of the vector index (SQLite)
//   - DocumentLoader: Reads source documents from the data directory
//   - ConversationMemory: Ordered question/answer turns
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - PromptStore: User-editable prompt templates. Embedded defaults are used without it.
//   - TokenCounter: Token budgeting for conversation memory.
//   - AIConfigValidator: Connectivity checks for configured providers.
//   - Normaliser: Plain text extraction for marked-up files.
//   - SourceWatcher: Change notifications for the data directory.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, normaliser, or postprocessor package
package driven
