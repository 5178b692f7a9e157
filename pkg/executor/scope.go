package executor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// Scope restricts which URLs the navigate action may load. Patterns are
// glob expressions matched against the host (e.g. "*.example.com") or, when
// they contain a slash, against host+path. An empty scope allows everything.
type Scope struct {
	patterns []scopedPattern
}

type scopedPattern struct {
	raw      string
	g        glob.Glob
	withPath bool
}

// NewScope compiles the given glob patterns.
func NewScope(patterns []string) (*Scope, error) {
	s := &Scope{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '.', '/')
		if err != nil {
			return nil, fmt.Errorf("compiling scope pattern %q: %w", p, err)
		}
		s.patterns = append(s.patterns, scopedPattern{
			raw:      p,
			g:        g,
			withPath: strings.Contains(p, "/"),
		})
	}
	return s, nil
}

// Allows reports whether the URL may be navigated to.
func (s *Scope) Allows(rawURL string) bool {
	if s == nil || len(s.patterns) == 0 {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	hostPath := host + u.Path
	for _, p := range s.patterns {
		if p.withPath {
			if p.g.Match(hostPath) {
				return true
			}
			continue
		}
		if p.g.Match(host) {
			return true
		}
	}
	return false
}
