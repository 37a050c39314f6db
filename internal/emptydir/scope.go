package emptydir

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultScopes restricts reconciliation to the asset root.
var DefaultScopes = []string{"Assets"}

// Scope limits which paths a reconciler acts on. A path is in scope when
// one of its strict ancestors matches a pattern, so the pattern "Assets"
// admits "Assets/x" but not "Assets" itself. The zero Scope admits all.
type Scope struct {
	patterns []string
}

// NewScope validates the doublestar patterns and builds a Scope.
func NewScope(patterns ...string) (Scope, error) {
	cleaned := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return Scope{}, fmt.Errorf("invalid scope pattern %q", p)
		}
		cleaned = append(cleaned, p)
	}
	return Scope{patterns: cleaned}, nil
}

// AllPlaces reports whether the scope admits every path.
func (s Scope) AllPlaces() bool {
	return len(s.patterns) == 0
}

func (s Scope) Patterns() []string {
	return append([]string(nil), s.patterns...)
}

// Contains reports whether path is inside the scope.
func (s Scope) Contains(path string) bool {
	if s.AllPlaces() {
		return true
	}
	for idx := strings.LastIndexByte(path, '/'); idx > 0; idx = strings.LastIndexByte(path, '/') {
		path = path[:idx]
		for _, p := range s.patterns {
			if ok, _ := doublestar.Match(p, path); ok {
				return true
			}
		}
	}
	return false
}
