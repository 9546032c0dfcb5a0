// Package render writes selected rule documents to an output stream, as
// plain text, JSON, or terminal-styled markdown.
package render
