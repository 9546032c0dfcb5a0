// Package glob matches file paths against comma-separated glob patterns.
//
// Patterns use the standard `*` and `**` wildcards, where `*` matches any
// run of characters excluding path separators and `**` also crosses them.
package glob
