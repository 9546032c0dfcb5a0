package glob

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matches reports whether path matches any sub-pattern in pattern, where
// pattern is a comma-separated list of glob sub-patterns. Matching is
// case-sensitive.
//
// An empty or blank pattern matches every path, so that documents without
// explicit globs remain discoverable. An invalid sub-pattern is treated as
// non-matching; Matches never fails.
func Matches(path, pattern string) bool {
	if strings.TrimSpace(pattern) == "" {
		return true
	}

	path = filepath.ToSlash(path)

	for sub := range splitPattern(pattern) {
		ok, err := doublestar.Match(sub, path)
		if err != nil {
			// Invalid sub-patterns are non-matching, not fatal.
			continue
		}
		if ok {
			return true
		}
	}

	return false
}

// Validate checks every sub-pattern in pattern and returns an error naming
// the first invalid one. A blank pattern is valid.
func Validate(pattern string) error {
	for sub := range splitPattern(pattern) {
		if !doublestar.ValidatePattern(sub) {
			return fmt.Errorf("invalid glob sub-pattern %q: %w", sub, doublestar.ErrBadPattern)
		}
	}

	return nil
}

// splitPattern yields the trimmed, non-empty sub-patterns of a
// comma-separated pattern list.
func splitPattern(pattern string) func(yield func(string) bool) {
	return func(yield func(string) bool) {
		for sub := range strings.SplitSeq(pattern, ",") {
			sub = strings.TrimSpace(sub)
			if sub == "" {
				continue
			}
			if !yield(sub) {
				return
			}
		}
	}
}
