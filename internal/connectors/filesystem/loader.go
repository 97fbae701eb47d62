// Package filesystem reads source documents from a local directory tree
// and watches it for changes.
package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// utf8BOM is stripped from the start of documents.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Loader reads recognised files as documents.
type Loader struct {
	extensions  map[string]struct{}
	policy      domain.DecodePolicy
	normalisers map[string]driven.Normaliser
}

// Option configures a Loader.
type Option func(*Loader)

// WithExtensions replaces the recognised extensions. Matching ignores case.
func WithExtensions(exts ...string) Option {
	return func(l *Loader) {
		l.extensions = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			l.extensions[strings.ToLower(ext)] = struct{}{}
		}
	}
}

// WithDecodePolicy sets what happens to files that are not valid UTF-8.
func WithDecodePolicy(policy domain.DecodePolicy) Option {
	return func(l *Loader) {
		l.policy = policy
	}
}

// WithNormalisers converts files with a matching extension to plain text
// after decoding. The extension must still be recognised to be loaded.
func WithNormalisers(ns ...driven.Normaliser) Option {
	return func(l *Loader) {
		for _, n := range ns {
			for _, ext := range n.Extensions() {
				l.normalisers[strings.ToLower(ext)] = n
			}
		}
	}
}

// NewLoader creates a loader for .txt files that aborts on decode errors.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		policy:      domain.DecodePolicyAbort,
		normalisers: make(map[string]driven.Normaliser),
	}
	WithExtensions(".txt")(l)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Recognised reports whether path has a recognised extension and its base
// name is not hidden.
func (l *Loader) Recognised(path string) bool {
	if isHidden(filepath.Base(path)) {
		return false
	}
	_, ok := l.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load walks root and returns one document per recognised file, ordered by path.
// Hidden files and directories are skipped.
func (l *Loader) Load(ctx context.Context, root string) ([]domain.Document, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("data directory %s: %w", root, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDocumentLoad, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && l.Recognised(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: walking %s: %v", domain.ErrDocumentLoad, root, err)
	}

	sort.Strings(paths)
	logger.Debug("found %d candidate files in %s", len(paths), root)
	return l.LoadFiles(ctx, paths)
}

// LoadFiles reads the given files, ignoring unrecognised extensions.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !l.Recognised(path) {
			continue
		}

		doc, err := readDocument(path)
		if err != nil {
			if l.policy == domain.DecodePolicySkip && errors.Is(err, errNotUTF8) {
				logger.Warn("skipping %s: not valid UTF-8", path)
				continue
			}
			return nil, err
		}
		if n, ok := l.normalisers[strings.ToLower(filepath.Ext(path))]; ok {
			normalised, err := n.Normalise(ctx, *doc)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", domain.ErrDocumentLoad, doc.URI, err)
			}
			doc = &normalised
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

var errNotUTF8 = errors.New("not valid UTF-8")

func readDocument(path string) (*domain.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDocumentLoad, path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentLoad, abs, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDocumentLoad, abs, err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentLoad, abs, errNotUTF8)
	}

	return &domain.Document{
		ID:      DocumentID(abs),
		URI:     abs,
		Title:   filepath.Base(abs),
		Content: string(data),
		Metadata: map[string]any{
			"size": info.Size(),
		},
		CreatedAt: time.Now(),
		UpdatedAt: info.ModTime(),
	}, nil
}

// DocumentID derives a stable document ID from an absolute path.
func DocumentID(absPath string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+absPath)).String()
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
