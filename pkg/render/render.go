package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/macropower/mdc/pkg/rule"
)

type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
)

var (
	ErrUnknownFormat = errors.New("unknown output format")

	AllFormats = []string{
		string(FormatText),
		string(FormatJSON),
		string(FormatPretty),
	}
)

func GetFormat(format string) (Format, error) {
	f := Format(strings.ToLower(format))
	for _, known := range AllFormats {
		if string(f) == known {
			return f, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Renderer writes rule documents in a fixed output format.
type Renderer struct {
	stylePath string
	format    Format
	wordWrap  int
}

// New creates a [Renderer] for the given format.
func New(format Format, opts ...Opt) *Renderer {
	r := &Renderer{format: format}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

type Opt func(*Renderer)

// WithWordWrap sets the wrap width for pretty output. Zero disables
// wrapping.
func WithWordWrap(width int) Opt {
	return func(r *Renderer) {
		r.wordWrap = width
	}
}

// WithStylePath forces a glamour style (e.g. "dark", "light", "notty")
// instead of auto-detection.
func WithStylePath(style string) Opt {
	return func(r *Renderer) {
		r.stylePath = style
	}
}

// Render writes docs to w. Bodies are opaque: text and pretty output
// reproduce them as-is, in order.
func (r *Renderer) Render(w io.Writer, docs []*rule.Document) error {
	switch r.format {
	case FormatJSON:
		return renderJSON(w, docs)

	case FormatText:
		_, err := io.WriteString(w, joinBodies(docs))
		if err != nil {
			return fmt.Errorf("write text output: %w", err)
		}

		return nil

	case FormatPretty:
		return r.renderPretty(w, docs)
	}

	return fmt.Errorf("%w: %q", ErrUnknownFormat, r.format)
}

func renderJSON(w io.Writer, docs []*rule.Document) error {
	if docs == nil {
		docs = []*rule.Document{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(docs)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}

	return nil
}

func (r *Renderer) renderPretty(w io.Writer, docs []*rule.Document) error {
	styleOpt := glamour.WithAutoStyle()
	if r.stylePath != "" {
		styleOpt = glamour.WithStylePath(r.stylePath)
	}

	tr, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(r.wordWrap),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}

	out, err := tr.Render(joinBodies(docs))
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}

	_, err = io.WriteString(w, out)
	if err != nil {
		return fmt.Errorf("write pretty output: %w", err)
	}

	return nil
}

// joinBodies concatenates document bodies in order, separated by a blank
// line.
func joinBodies(docs []*rule.Document) string {
	b := &strings.Builder{}

	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n")
		}

		b.WriteString(doc.Body)

		if doc.Body != "" && !strings.HasSuffix(doc.Body, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String()
}
