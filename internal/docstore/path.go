package docstore

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned for paths that are empty or contain a forbidden segment.
var ErrInvalidPath = errors.New("invalid path")

const forbiddenChars = ".#$[]"

// Join builds a path from segments and validates it.
func Join(segments ...string) (string, error) {
	p := strings.Join(segments, "/")
	if err := ValidatePath(p); err != nil {
		return "", err
	}
	return p, nil
}

// ValidatePath reports whether p is a well-formed store path.
func ValidatePath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	for _, seg := range strings.Split(p, "/") {
		if err := validateSegment(seg); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidPath, p, err)
		}
	}
	return nil
}

// ValidateKey reports whether k can be used as a single path segment.
func ValidateKey(k string) error {
	if strings.Contains(k, "/") {
		return fmt.Errorf("%w: key %q contains '/'", ErrInvalidPath, k)
	}
	if err := validateSegment(k); err != nil {
		return fmt.Errorf("%w: key %q: %v", ErrInvalidPath, k, err)
	}
	return nil
}

func validateSegment(seg string) error {
	if seg == "" {
		return errors.New("empty segment")
	}
	for _, r := range seg {
		if r < 0x20 || r == 0x7f {
			return errors.New("control character in segment")
		}
		if strings.ContainsRune(forbiddenChars, r) {
			return fmt.Errorf("segment %q contains %q", seg, r)
		}
	}
	return nil
}

// related reports whether a change at changed affects a watcher of watched:
// the paths are equal or one is an ancestor of the other.
func related(watched, changed string) bool {
	return isWithin(changed, watched) || isWithin(watched, changed)
}

// isWithin reports whether p equals root or lies below it.
func isWithin(p, root string) bool {
	return p == root || strings.HasPrefix(p, root+"/")
}

// SubtreeBounds returns the half-open key range [lo, hi) that holds every
// path strictly below root. '0' is the byte after '/'.
func SubtreeBounds(root string) (lo, hi string) {
	return root + "/", root + "0"
}
