// Package pathutil centralizes logical-path normalization so that object-id
// formation and manifest-relative child-token joining share one
// idempotent implementation.
package pathutil

import "strings"

// Normalize collapses "/x/../" and "/./" segments until the result is
// stable. Unlike path.Clean, it operates on an opaque "/"-separated token
// stream rather than an OS path, preserves a leading slash if present, and
// leaves the empty path as empty.
func Normalize(p string) string {
	if p == "" {
		return ""
	}

	leadingSlash := strings.HasPrefix(p, "/")
	trailingSlash := strings.HasSuffix(p, "/") && p != "/"

	segments := strings.Split(p, "/")
	var stack []string
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 && stack[len(stack)-1] != ".." {
				stack = stack[:len(stack)-1]
			} else if !leadingSlash {
				// Outside an absolute root, a leading ".." has nowhere to
				// cancel against; keep it so relative child tokens like
				// "../v1" resolve correctly against their owning directory.
				stack = append(stack, "..")
			}
		default:
			stack = append(stack, seg)
		}
	}

	joined := strings.Join(stack, "/")
	if leadingSlash {
		joined = "/" + joined
	}
	if trailingSlash && joined != "" && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return joined
}

// Join composes a base logical path with a relative child token (which may
// itself contain "." / ".." components) and normalizes the result.
func Join(base, child string) string {
	if base == "" {
		return Normalize(child)
	}
	if child == "" {
		return Normalize(base)
	}
	return Normalize(base + "/" + child)
}
