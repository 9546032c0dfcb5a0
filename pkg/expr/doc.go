// Package expr provides the CEL environment used by selection filters.
//
// Filter expressions operate on path strings and document identifiers; the
// environment adds path helper functions on top of the CEL standard
// library.
package expr
