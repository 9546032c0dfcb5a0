// Package rule models rule documents: units of guidance text with optional
// path-matching metadata, parsed from markdown files with a YAML
// frontmatter header.
//
// Bodies are opaque payloads. Nothing in this package interprets or
// executes rule content.
package rule
