package rule

import (
	"errors"
	"strings"

	"github.com/goccy/go-yaml"
)

// ErrUnterminatedHeader is returned when a document opens a frontmatter
// fence but never closes it, leaving no body to extract.
var ErrUnterminatedHeader = errors.New("unterminated frontmatter header")

const fence = "---"

// frontMatter is the recognized metadata header of a rule document.
// Unknown keys are ignored.
type frontMatter struct {
	Description string   `yaml:"description"`
	Globs       globList `yaml:"globs"`
	AlwaysApply bool     `yaml:"alwaysApply"`
}

// globList accepts either a comma-separated scalar or a YAML sequence of
// glob patterns, normalizing both to the comma-separated form.
type globList string

func (g *globList) UnmarshalYAML(b []byte) error {
	var s string

	err := yaml.Unmarshal(b, &s)
	if err == nil {
		*g = globList(s)

		return nil
	}

	var list []string

	err = yaml.Unmarshal(b, &list)
	if err != nil {
		return err //nolint:wrapcheck // Return the original error.
	}

	*g = globList(strings.Join(list, ", "))

	return nil
}

// Parse parses a raw rule document into a [Document]. A document without a
// frontmatter header is entirely body, with default metadata. A document
// whose header fence is never closed yields a [ParseError], since no body
// can be extracted.
//
// If the document contains further header blocks after the first, they are
// left in the body verbatim; only the leading header is metadata.
func Parse(id string, data []byte) (*Document, error) {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")

	header, body, hasHeader, err := splitHeader(content)
	if err != nil {
		return nil, &ParseError{ID: id, Err: err}
	}

	doc := &Document{
		ID:   id,
		Body: body,
	}
	if hasHeader {
		fm := parseHeader(header)
		doc.Description = fm.Description
		doc.Globs = strings.TrimSpace(string(fm.Globs))
		doc.AlwaysApply = fm.AlwaysApply
	}

	return doc, nil
}

// splitHeader splits a document into its frontmatter header and body.
func splitHeader(content string) (header, body string, hasHeader bool, err error) {
	if content != fence && !strings.HasPrefix(content, fence+"\n") {
		// No header at all; the whole document is body.
		return "", content, false, nil
	}

	rest := strings.TrimPrefix(content, fence)
	rest = strings.TrimPrefix(rest, "\n")

	if rest == fence || strings.HasPrefix(rest, fence+"\n") {
		// Empty header.
		body = strings.TrimPrefix(rest, fence)
		body = strings.TrimPrefix(body, "\n")

		return "", body, true, nil
	}

	if idx := strings.Index(rest, "\n"+fence+"\n"); idx >= 0 {
		return rest[:idx], rest[idx+len("\n"+fence+"\n"):], true, nil
	}
	if strings.HasSuffix(rest, "\n"+fence) {
		// The closing fence is the final line; the body is empty.
		return strings.TrimSuffix(rest, "\n"+fence), "", true, nil
	}

	return "", "", false, ErrUnterminatedHeader
}

// parseHeader parses the header's key-value pairs. Headers in the wild are
// frequently not valid YAML (unquoted glob values begin with `*`, a
// reserved YAML character), so YAML parsing falls back to a line-based
// scan. Malformed metadata is never fatal.
func parseHeader(header string) frontMatter {
	var fm frontMatter

	err := yaml.Unmarshal([]byte(header), &fm)
	if err == nil {
		return fm
	}

	return scanHeaderLines(header)
}

func scanHeaderLines(header string) frontMatter {
	var fm frontMatter

	for line := range strings.SplitSeq(header, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "description":
			fm.Description = trimQuotes(value)

		case "globs":
			fm.Globs = globList(trimQuotes(value))

		case "alwaysApply":
			fm.AlwaysApply = value == "true"
		}
	}

	return fm
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}

	return s
}
