package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/mdc/pkg/store"
)

func ruleFile(header, body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(header + body)}
}

func TestLoader_LoadFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"angular.mdc": ruleFile(
			"---\ndescription: Angular rules\nglobs: '**/*.ts'\n---\n",
			"Angular body\n",
		),
		"react/components.mdc": ruleFile(
			"---\ndescription: React components\nglobs: '**/*.tsx'\n---\n",
			"React body\n",
		),
		"tailwind.md": ruleFile(
			"---\ndescription: Tailwind rules\n---\n",
			"Tailwind body\n",
		),
		"notes.txt": ruleFile("", "not a rule document\n"),
	}

	l := store.NewLoader()
	st, err := l.LoadFS(t.Context(), fsys)
	require.NoError(t, err)

	require.Equal(t, 3, st.Len())
	assert.Empty(t, st.Errors())

	// Lexical walk order.
	var ids []string
	for _, doc := range st.All() {
		ids = append(ids, doc.ID)
	}
	assert.Equal(t, []string{"angular", "react/components", "tailwind"}, ids)

	doc, ok := st.Get("react/components")
	require.True(t, ok)
	assert.Equal(t, "React components", doc.Description)
	assert.Equal(t, "**/*.tsx", doc.Globs)
	assert.Equal(t, "React body\n", doc.Body)

	_, ok = st.Get("notes")
	assert.False(t, ok)
}

func TestLoader_LoadFS_SkipAndContinue(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"broken.mdc": ruleFile("---\ndescription: never closed\n", ""),
		"good.mdc":   ruleFile("---\ndescription: fine\n---\n", "body\n"),
	}

	l := store.NewLoader()
	st, err := l.LoadFS(t.Context(), fsys)
	require.NoError(t, err)

	assert.Equal(t, 1, st.Len())

	errs := st.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "broken", errs[0].ID)

	_, ok := st.Get("good")
	assert.True(t, ok)
}

func TestLoader_LoadFS_StableOrder(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"b.mdc": ruleFile("", "B\n"),
		"a.mdc": ruleFile("", "A\n"),
		"c.mdc": ruleFile("", "C\n"),
	}

	l := store.NewLoader()
	st, err := l.LoadFS(t.Context(), fsys)
	require.NoError(t, err)

	first := st.All()
	second := st.All()
	assert.Equal(t, first, second)

	var ids []string
	for _, doc := range first {
		ids = append(ids, doc.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeRule(t, dir, "svelte.mdc", "---\nglobs: '**/*.svelte'\n---\nSvelte body\n")

	l := store.NewLoader()
	st, err := l.Load(t.Context(), dir)
	require.NoError(t, err)

	require.Equal(t, 1, st.Len())

	doc, ok := st.Get("svelte")
	require.True(t, ok)
	assert.Equal(t, "**/*.svelte", doc.Globs)
}

func TestLoader_Load_MissingDirectory(t *testing.T) {
	t.Parallel()

	l := store.NewLoader()

	_, err := l.Load(t.Context(), filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestLoader_Load_DuplicateIdentifiers(t *testing.T) {
	t.Parallel()

	dirA := t.TempDir()
	dirB := t.TempDir()
	writeRule(t, dirA, "shared.mdc", "---\ndescription: first\n---\nA\n")
	writeRule(t, dirB, "shared.mdc", "---\ndescription: second\n---\nB\n")

	l := store.NewLoader()
	st, err := l.Load(t.Context(), dirA, dirB)
	require.NoError(t, err)

	// The first occurrence wins; the duplicate is skipped.
	require.Equal(t, 1, st.Len())

	doc, ok := st.Get("shared")
	require.True(t, ok)
	assert.Equal(t, "first", doc.Description)
}

func TestLoader_WithExtensions(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"a.mdc":  ruleFile("", "A\n"),
		"b.rule": ruleFile("", "B\n"),
	}

	l := store.NewLoader(store.WithExtensions(".rule"))
	st, err := l.LoadFS(t.Context(), fsys)
	require.NoError(t, err)

	require.Equal(t, 1, st.Len())

	_, ok := st.Get("b")
	assert.True(t, ok)
}

func writeRule(t *testing.T, dir, name, content string) {
	t.Helper()

	err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600)
	require.NoError(t, err)
}
