package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/mdc/pkg/glob"
	"github.com/macropower/mdc/pkg/rule"
)

// DefaultExtensions are the file extensions recognized as rule documents.
var DefaultExtensions = []string{".mdc", ".md"}

// Store is an immutable, ordered snapshot of rule documents.
type Store struct {
	index map[string]*rule.Document
	docs  []*rule.Document
	errs  []*rule.ParseError
}

// All returns the documents in load order. The order is stable across
// repeated calls within the same snapshot.
func (s *Store) All() []*rule.Document {
	return slices.Clone(s.docs)
}

// Get returns the document with the given identifier.
func (s *Store) Get(id string) (*rule.Document, bool) {
	doc, ok := s.index[id]

	return doc, ok
}

// Len returns the number of loaded documents.
func (s *Store) Len() int {
	return len(s.docs)
}

// Errors returns the per-document parse failures encountered during load.
// These documents were skipped; the rest of the snapshot is intact.
func (s *Store) Errors() []*rule.ParseError {
	return slices.Clone(s.errs)
}

// Loader loads rule documents into a [Store].
type Loader struct {
	tracer     trace.Tracer
	extensions []string
}

// NewLoader creates a new [Loader].
func NewLoader(opts ...LoaderOpt) *Loader {
	l := &Loader{
		tracer:     otel.Tracer("rule-store"),
		extensions: DefaultExtensions,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

type LoaderOpt func(*Loader)

// WithExtensions overrides the recognized rule document extensions.
func WithExtensions(exts ...string) LoaderOpt {
	return func(l *Loader) {
		l.extensions = exts
	}
}

// Load reads every rule document under the given directories, in directory
// then lexical walk order. Documents that cannot be parsed are skipped and
// recorded on the store; Load only fails when a directory cannot be read.
//
// The returned store is a complete snapshot: partial state is never
// exposed.
func (l *Loader) Load(ctx context.Context, dirs ...string) (*Store, error) {
	ctx, span := l.tracer.Start(ctx, "load",
		trace.WithAttributes(attribute.StringSlice("dirs", dirs)))
	defer span.End()

	st := newStore()

	for _, dir := range dirs {
		root, err := os.OpenRoot(dir)
		if err != nil {
			return nil, fmt.Errorf("open rule directory %q: %w", dir, err)
		}

		err = l.loadFS(ctx, root.FS(), st)

		closeErr := root.Close()
		if err != nil {
			return nil, fmt.Errorf("load rule directory %q: %w", dir, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("close rule directory %q: %w", dir, closeErr)
		}
	}

	span.SetAttributes(
		attribute.Int("documents", st.Len()),
		attribute.Int("parse_errors", len(st.errs)),
	)

	return st, nil
}

// LoadFS reads every rule document in the given filesystem, in lexical walk
// order.
func (l *Loader) LoadFS(ctx context.Context, fsys fs.FS) (*Store, error) {
	ctx, span := l.tracer.Start(ctx, "load")
	defer span.End()

	st := newStore()

	err := l.loadFS(ctx, fsys, st)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("documents", st.Len()),
		attribute.Int("parse_errors", len(st.errs)),
	)

	return st, nil
}

func newStore() *Store {
	return &Store{index: map[string]*rule.Document{}}
}

func (l *Loader) loadFS(ctx context.Context, fsys fs.FS, st *Store) error {
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err //nolint:wrapcheck // Return the original error.
		}
		if d.IsDir() || !l.recognized(p) {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read document %q: %w", p, err)
		}

		l.add(st, identifier(p), data)

		return nil
	})
	if err != nil {
		return fmt.Errorf("walk rule directory: %w", err)
	}

	return nil
}

// add parses one document into the store, skipping and recording failures.
func (l *Loader) add(st *Store, id string, data []byte) {
	doc, err := rule.Parse(id, data)
	if err != nil {
		var parseErr *rule.ParseError
		if !errors.As(err, &parseErr) {
			// rule.Parse only fails with *rule.ParseError.
			panic(err)
		}

		slog.Warn("skipping malformed rule document",
			slog.String("id", id),
			slog.Any("error", parseErr.Err),
		)
		st.errs = append(st.errs, parseErr)

		return
	}

	if _, exists := st.index[doc.ID]; exists {
		slog.Warn("skipping rule document with duplicate identifier",
			slog.String("id", doc.ID),
		)

		return
	}

	if err := glob.Validate(doc.Globs); err != nil {
		// Invalid sub-patterns are non-matching at selection time, never
		// fatal; surface them here so authors can notice.
		slog.Warn("rule document has invalid glob pattern",
			slog.String("id", doc.ID),
			slog.Any("error", err),
		)
	}

	st.docs = append(st.docs, doc)
	st.index[doc.ID] = doc
}

// recognized reports whether the path has a rule document extension.
func (l *Loader) recognized(p string) bool {
	ext := path.Ext(p)
	for _, e := range l.extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}

	return false
}

// identifier derives a document identifier from its directory-relative
// path, dropping the extension.
func identifier(p string) string {
	return strings.TrimSuffix(p, path.Ext(p))
}
