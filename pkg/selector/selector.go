package selector

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/cel-go/cel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/mdc/pkg/expr"
	"github.com/macropower/mdc/pkg/rule"
)

// Store provides loaded rule documents in stable order.
type Store interface {
	All() []*rule.Document
}

// Filter uses a CEL matcher to exclude documents from selection.
//
// CEL expressions have access to variables:
//   - `path` (string): The file path being selected for.
//   - `id` (string): The identifier of the candidate document.
//
// CEL expressions must return a boolean value:
//   - pathExt(path) in [".ts", ".tsx"] - only select for TypeScript paths
//   - !id.startsWith("experimental/") - exclude a document subtree
//   - !path.contains("/vendor/") - skip vendored code
//
// CEL path functions available:
//   - pathBase(string): Returns the last element of the path (filename)
//   - pathDir(string): Returns all but the last element of the path
//   - pathExt(string): Returns the file extension including the dot
//
// A document is selected only if every filter returns true. Evaluation
// failures and non-boolean results are treated as non-matching.
type Filter struct {
	matchProgram cel.Program

	// Match is a CEL expression over `path` and `id`.
	Match string `json:"match" jsonschema:"title=Match Expression"`
}

// NewFilter creates a new filter with the given match expression.
func NewFilter(match string) (*Filter, error) {
	f := &Filter{Match: match}

	err := f.CompileMatch()
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", match, err)
	}

	return f, nil
}

// MustNewFilter creates a new filter and panics if there's an error.
func MustNewFilter(match string) *Filter {
	f, err := NewFilter(match)
	if err != nil {
		panic(err)
	}

	return f
}

// CompileMatch compiles the filter's match expression into a CEL program.
func (f *Filter) CompileMatch() error {
	if f.matchProgram == nil {
		env, err := expr.NewEnvironment(
			cel.Variable("path", cel.StringType),
			cel.Variable("id", cel.StringType),
		)
		if err != nil {
			return fmt.Errorf("create CEL environment: %w", err)
		}

		program, err := env.Compile(f.Match)
		if err != nil {
			return fmt.Errorf("compile match expression: %w", err)
		}

		f.matchProgram = program
	}

	return nil
}

// Allow evaluates the filter for a candidate document.
func (f *Filter) Allow(path, id string) bool {
	if f.matchProgram == nil {
		panic(errors.New("filter missing a match expression"))
	}

	result, _, err := f.matchProgram.Eval(map[string]any{
		"path": path,
		"id":   id,
	})
	if err != nil {
		// If evaluation fails, consider it a non-match.
		return false
	}

	// CEL expression must return a boolean value.
	if boolVal, ok := result.Value().(bool); ok {
		return boolVal
	}

	// If the result is not a boolean, treat as non-match.
	return false
}

// Selector selects the documents applying to a path.
type Selector struct {
	tracer  trace.Tracer
	filters []*Filter
}

// New creates a new [Selector].
func New(opts ...Opt) *Selector {
	s := &Selector{
		tracer: otel.Tracer("rule-selector"),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

type Opt func(*Selector)

// WithFilters adds CEL filters constraining selection.
func WithFilters(fs ...*Filter) Opt {
	return func(s *Selector) {
		s.filters = append(s.filters, fs...)
	}
}

// Select returns the documents in st that apply to path, preserving store
// order. An empty result is not an error. Select is idempotent: repeated
// calls with the same inputs yield identical output.
func (s *Selector) Select(ctx context.Context, st Store, path string) []*rule.Document {
	_, span := s.tracer.Start(ctx, "select",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	path = filepath.ToSlash(path)

	var matched []*rule.Document

	for _, doc := range st.All() {
		if !doc.Matches(path) {
			continue
		}
		if !s.allowed(path, doc.ID) {
			continue
		}

		matched = append(matched, doc)
	}

	span.SetAttributes(attribute.Int("matched", len(matched)))

	return matched
}

func (s *Selector) allowed(path, id string) bool {
	for _, f := range s.filters {
		if !f.Allow(path, id) {
			return false
		}
	}

	return true
}
