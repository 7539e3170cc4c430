package docstore

import (
	"fmt"
	"strings"
)

// ref is a parsed path. Parent and Sub are set for nested lists such as
// chats/{parent}/messages.
type ref struct {
	Collection string
	Parent     string
	Sub        string
	ID         string
}

func parsePath(p string) (ref, error) {
	p = strings.Trim(p, "/")
	if p == "" {
		return ref{}, ErrInvalidPath
	}
	parts := strings.Split(p, "/")
	for _, s := range parts {
		if s == "" {
			return ref{}, fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}
	switch len(parts) {
	case 1:
		return ref{Collection: parts[0]}, nil
	case 2:
		return ref{Collection: parts[0], ID: parts[1]}, nil
	case 3:
		return ref{Collection: parts[0], Parent: parts[1], Sub: parts[2]}, nil
	case 4:
		return ref{Collection: parts[0], Parent: parts[1], Sub: parts[2], ID: parts[3]}, nil
	}
	return ref{}, fmt.Errorf("%w: %q", ErrInvalidPath, p)
}

// isDoc reports whether the path names a single document.
func (r ref) isDoc() bool { return r.ID != "" }

// table is the physical collection the ref lives in.
func (r ref) table() string {
	if r.Sub != "" {
		return r.Collection + "_" + r.Sub
	}
	return r.Collection
}

// dir is the path of the list containing the ref.
func (r ref) dir() string {
	if r.Sub != "" {
		return r.Collection + "/" + r.Parent + "/" + r.Sub
	}
	return r.Collection
}

// Join builds a path from segments.
func Join(segs ...string) string {
	return strings.Join(segs, "/")
}
