package render_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/mdc/pkg/render"
	"github.com/macropower/mdc/pkg/rule"
)

func TestGetFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    render.Format
		wantErr bool
	}{
		{
			name:  "text",
			input: "text",
			want:  render.FormatText,
		},
		{
			name:  "case-insensitive",
			input: "JSON",
			want:  render.FormatJSON,
		},
		{
			name:    "unknown",
			input:   "xml",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := render.GetFormat(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, render.ErrUnknownFormat)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderer_Render_Text(t *testing.T) {
	t.Parallel()

	docs := []*rule.Document{
		{ID: "a", Body: "First body\n"},
		{ID: "b", Body: "Second body"},
	}

	b := &bytes.Buffer{}
	r := render.New(render.FormatText)

	err := r.Render(b, docs)
	require.NoError(t, err)
	assert.Equal(t, "First body\n\nSecond body\n", b.String())
}

func TestRenderer_Render_Text_Empty(t *testing.T) {
	t.Parallel()

	b := &bytes.Buffer{}
	r := render.New(render.FormatText)

	err := r.Render(b, nil)
	require.NoError(t, err)
	assert.Empty(t, b.String())
}

func TestRenderer_Render_JSON(t *testing.T) {
	t.Parallel()

	docs := []*rule.Document{
		{ID: "a", Description: "d", Globs: "**/*.ts", Body: "X"},
	}

	b := &bytes.Buffer{}
	r := render.New(render.FormatJSON)

	err := r.Render(b, docs)
	require.NoError(t, err)

	var decoded []map[string]any

	require.NoError(t, json.Unmarshal(b.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "a", decoded[0]["id"])
	assert.Equal(t, "X", decoded[0]["body"])
}

func TestRenderer_Render_JSON_Empty(t *testing.T) {
	t.Parallel()

	b := &bytes.Buffer{}
	r := render.New(render.FormatJSON)

	err := r.Render(b, nil)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", b.String())
}

func TestRenderer_Render_Pretty(t *testing.T) {
	t.Parallel()

	docs := []*rule.Document{
		{ID: "a", Body: "# Heading\n\nSome text.\n"},
	}

	b := &bytes.Buffer{}
	r := render.New(render.FormatPretty,
		render.WithStylePath("notty"),
		render.WithWordWrap(80),
	)

	err := r.Render(b, docs)
	require.NoError(t, err)
	assert.True(t, strings.Contains(b.String(), "Heading"))
	assert.True(t, strings.Contains(b.String(), "Some text."))
}
