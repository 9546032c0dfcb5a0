package rule

import (
	"fmt"

	"github.com/macropower/mdc/pkg/glob"
)

// Document is a single rule document. Documents are immutable once loaded.
type Document struct {
	// ID uniquely identifies the document within a store. It is derived
	// from the document's path relative to its rule directory, without the
	// file extension.
	ID string `json:"id" jsonschema:"title=Identifier"`
	// Description is a free-text summary from the frontmatter header.
	Description string `json:"description,omitempty" jsonschema:"title=Description"`
	// Globs is a comma-separated list of glob sub-patterns. An empty value
	// means the document applies to every path.
	Globs string `json:"globs,omitempty" jsonschema:"title=Glob Patterns"`
	// AlwaysApply forces the document to match regardless of Globs.
	AlwaysApply bool `json:"alwaysApply,omitempty" jsonschema:"title=Always Apply"`
	// Body is the document content following the frontmatter header.
	Body string `json:"body" jsonschema:"title=Body"`
}

// Matches reports whether the document applies to the given path.
func (d *Document) Matches(path string) bool {
	if d.AlwaysApply {
		return true
	}

	return glob.Matches(path, d.Globs)
}

func (d *Document) String() string {
	if d.Description != "" {
		return fmt.Sprintf("%s: %s", d.ID, d.Description)
	}

	return d.ID
}

// ParseError reports a document that could not be split into a header and
// body. The store records these and continues loading (skip-and-continue).
type ParseError struct {
	Err error
	ID  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse document %q: %v", e.ID, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
