package selector_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/mdc/pkg/rule"
	"github.com/macropower/mdc/pkg/selector"
	"github.com/macropower/mdc/pkg/store"
)

func loadStore(t *testing.T, fsys fstest.MapFS) *store.Store {
	t.Helper()

	st, err := store.NewLoader().LoadFS(t.Context(), fsys)
	require.NoError(t, err)

	return st
}

func TestSelector_Select(t *testing.T) {
	t.Parallel()

	st := loadStore(t, fstest.MapFS{
		"ts.mdc": {Data: []byte(
			"---\nglobs: '**/*.ts, **/*.tsx'\n---\nX",
		)},
	})

	s := selector.New()

	tests := []struct {
		name       string
		path       string
		wantBodies []string
	}{
		{
			name:       "matching path",
			path:       "src/app.tsx",
			wantBodies: []string{"X"},
		},
		{
			name:       "non-matching path yields empty result",
			path:       "src/app.css",
			wantBodies: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			docs := s.Select(t.Context(), st, tt.path)

			var bodies []string
			for _, doc := range docs {
				bodies = append(bodies, doc.Body)
			}

			assert.Equal(t, tt.wantBodies, bodies)
		})
	}
}

func TestSelector_Select_EmptyGlobsMatchEverything(t *testing.T) {
	t.Parallel()

	st := loadStore(t, fstest.MapFS{
		"general.mdc": {Data: []byte("---\ndescription: general\n---\nG")},
	})

	s := selector.New()

	docs := s.Select(t.Context(), st, "anything.anything")
	require.Len(t, docs, 1)
	assert.Equal(t, "G", docs[0].Body)
}

func TestSelector_Select_PreservesStoreOrder(t *testing.T) {
	t.Parallel()

	st := loadStore(t, fstest.MapFS{
		"a.mdc": {Data: []byte("---\nglobs: '**/*.ts'\n---\nA")},
		"b.mdc": {Data: []byte("---\nglobs: '**/*.css'\n---\nB")},
		"c.mdc": {Data: []byte("---\nglobs: '**/*.ts'\n---\nC")},
		"d.mdc": {Data: []byte("D")},
	})

	s := selector.New()

	docs := s.Select(t.Context(), st, "src/app.ts")

	var ids []string
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}

	assert.Equal(t, []string{"a", "c", "d"}, ids)
}

func TestSelector_Select_Idempotent(t *testing.T) {
	t.Parallel()

	st := loadStore(t, fstest.MapFS{
		"a.mdc": {Data: []byte("---\nglobs: '**/*.ts'\n---\nA")},
		"b.mdc": {Data: []byte("B")},
	})

	s := selector.New()

	first := s.Select(t.Context(), st, "src/app.ts")
	second := s.Select(t.Context(), st, "src/app.ts")
	assert.Equal(t, first, second)
}

func TestSelector_Select_Filters(t *testing.T) {
	t.Parallel()

	st := loadStore(t, fstest.MapFS{
		"experimental/x.mdc": {Data: []byte("X")},
		"stable/y.mdc":       {Data: []byte("Y")},
	})

	s := selector.New(selector.WithFilters(
		selector.MustNewFilter(`!id.startsWith("experimental/")`),
	))

	docs := s.Select(t.Context(), st, "src/app.ts")
	require.Len(t, docs, 1)
	assert.Equal(t, "stable/y", docs[0].ID)
}

func TestSelector_Select_AllFiltersMustAllow(t *testing.T) {
	t.Parallel()

	st := loadStore(t, fstest.MapFS{
		"a.mdc": {Data: []byte("A")},
	})

	s := selector.New(selector.WithFilters(
		selector.MustNewFilter(`true`),
		selector.MustNewFilter(`pathExt(path) == ".css"`),
	))

	docs := s.Select(t.Context(), st, "src/app.ts")
	assert.Empty(t, docs)
}

func TestNewFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		match   string
		wantErr bool
	}{
		{
			name:    "valid filter",
			match:   `pathExt(path) in [".ts", ".tsx"]`,
			wantErr: false,
		},
		{
			name:    "invalid CEL expression",
			match:   `path.invalidFunction()`,
			wantErr: true,
		},
		{
			name:    "empty match",
			match:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := selector.NewFilter(tt.match)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, f)
			} else {
				require.NoError(t, err)
				require.NotNil(t, f)
				assert.Equal(t, tt.match, f.Match)
			}
		})
	}
}

func TestFilter_Allow_NonBoolean(t *testing.T) {
	t.Parallel()

	f := selector.MustNewFilter(`pathExt(path)`)
	assert.False(t, f.Allow("src/app.ts", "a"))
}

var _ selector.Store = (*store.Store)(nil)

// Sanity check that a handwritten store works too.
type sliceStore []*rule.Document

func (s sliceStore) All() []*rule.Document { return s }

func TestSelector_Select_CustomStore(t *testing.T) {
	t.Parallel()

	st := sliceStore{
		{ID: "one", Globs: "**/*.go", Body: "Go rules"},
	}

	s := selector.New()

	docs := s.Select(t.Context(), st, "pkg/main.go")
	require.Len(t, docs, 1)
	assert.Equal(t, "Go rules", docs[0].Body)
}
