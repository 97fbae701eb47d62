package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// RefusalPhrase is the reply the default answer prompt asks for when the
// context does not contain the answer.
const RefusalPhrase = "Sorry, the existing knowledge cannot answer your question."

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation: files are only created when first accessed,
// not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptRAGAnswer: `You are a question answering assistant. Answer the question using only the context below and the conversation so far.
If the context does not contain the answer, reply exactly with: "` + RefusalPhrase + `"
Do not make up facts. Keep the answer concise.

Context:
%[1]s

Conversation so far:
%[2]s

Question: %[3]s
Answer:`,
}

// requiredVerbs lists the placeholders a customised prompt must keep.
var requiredVerbs = map[string][]string{
	driven.PromptRAGAnswer: {driven.PlaceholderContext, driven.PlaceholderHistory, driven.PlaceholderQuestion},
}

// DefaultPromptDir returns ~/.ragchat/prompts.
func DefaultPromptDir() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompts"), nil
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.ragchat/prompts/.
//
// The constructor does not perform any I/O; directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultPromptDir()
		if err != nil {
			return nil, err
		}
		promptDir = dir
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Falls back to the embedded default if the file is missing or has lost
// one of its placeholders.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// No lock held during I/O
	prompt, err := s.loadFromFile(name)
	if err != nil {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	if missing := missingVerbs(name, prompt); len(missing) > 0 {
		logger.Warn("prompt %s is missing %s, using the built-in default", name, strings.Join(missing, ", "))
		prompt = defaultPrompts[name]
	}

	// Double-check so concurrent loads agree on one value
	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Path returns the file a prompt is read from.
func (s *PromptStore) Path(name string) string {
	return filepath.Join(s.promptDir, name+".txt")
}

func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := s.Path(name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func missingVerbs(name, prompt string) []string {
	var missing []string
	for _, verb := range requiredVerbs[name] {
		if !strings.Contains(prompt, verb) {
			missing = append(missing, verb)
		}
	}
	return missing
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# ragchat prompts

This directory contains the prompt templates ragchat sends to the language model.

## Files

- ` + "`rag_answer.txt`" + ` - Answers a question from retrieved passages and the chat history

## Customisation

Edit a file to change how answers are phrased. Changes take effect on the next
command, or after restarting an interactive session.

## Placeholders

` + "`rag_answer.txt`" + ` must keep all three indexed placeholders:

- ` + "`%[1]s`" + ` - the retrieved passages
- ` + "`%[2]s`" + ` - the conversation so far
- ` + "`%[3]s`" + ` - the question

A file missing any of them is ignored and the built-in prompt is used instead.
Everything else is sent as written: a literal ` + "`%`" + ` needs no escaping.
Delete a file to restore its default.
`
	return os.WriteFile(path, []byte(content), 0600)
}
