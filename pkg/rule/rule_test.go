package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/macropower/mdc/pkg/rule"
)

func TestDocument_Matches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  rule.Document
		path string
		want bool
	}{
		{
			name: "glob match",
			doc:  rule.Document{Globs: "**/*.ts, **/*.tsx"},
			path: "src/app.tsx",
			want: true,
		},
		{
			name: "glob non-match",
			doc:  rule.Document{Globs: "**/*.ts, **/*.tsx"},
			path: "src/app.css",
			want: false,
		},
		{
			name: "empty globs apply universally",
			doc:  rule.Document{},
			path: "anything.anything",
			want: true,
		},
		{
			name: "alwaysApply overrides non-matching globs",
			doc:  rule.Document{Globs: "**/*.ts", AlwaysApply: true},
			path: "README.md",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.doc.Matches(tt.path))
		})
	}
}

func TestDocument_String(t *testing.T) {
	t.Parallel()

	doc := &rule.Document{ID: "react/hooks", Description: "React hook conventions"}
	assert.Equal(t, "react/hooks: React hook conventions", doc.String())

	doc = &rule.Document{ID: "react/hooks"}
	assert.Equal(t, "react/hooks", doc.String())
}
