package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptRAGAnswer is the retrieval-augmented answer prompt.
	PromptRAGAnswer = "rag_answer"
)

// Placeholders substituted into the PromptRAGAnswer template. Any other
// text, including a bare %, is copied through unchanged.
const (
	PlaceholderContext  = "%[1]s"
	PlaceholderHistory  = "%[2]s"
	PlaceholderQuestion = "%[3]s"
)
