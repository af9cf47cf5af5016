package http

import "strings"

// segmentKind distinguishes the three kinds of pattern segment §4.3 defines.
type segmentKind uint8

const (
	segStatic segmentKind = iota
	segParam
	segWildcard
)

type segment struct {
	kind segmentKind
	text string // literal text for segStatic, parameter name otherwise
}

// compilePattern splits pattern on '/', discards empty segments, and maps
// each remaining segment to Static/Param/Wildcard. A Wildcard, if present,
// must be last; any later segments are discarded at compile time, matching
// §4.3 verbatim. The root pattern "/" or "" compiles to an empty list.
func compilePattern(pattern string) []segment {
	parts := strings.Split(pattern, "/")
	segs := make([]segment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		switch {
		case part[0] == '*':
			segs = append(segs, segment{kind: segWildcard, text: part[1:]})
			return segs // further segments discarded
		case part[0] == ':':
			segs = append(segs, segment{kind: segParam, text: part[1:]})
		default:
			segs = append(segs, segment{kind: segStatic, text: part})
		}
	}
	return segs
}

// matchPath walks path's segments against segs in parallel, binding Param
// and Wildcard segments into dst. It reports whether the whole path matched.
// dst is a scratch map supplied by the caller (the Design Notes' "mutable
// params on the Request during trial match" re-architecture: a trial match
// that fails must never have touched the Request, so matching always writes
// into a caller-owned scratch buffer that is only swapped in on success).
func matchPath(segs []segment, path string, dst Params) bool {
	pathParts := splitPath(path)

	if len(segs) == 0 {
		return len(pathParts) == 0
	}

	pi := 0
	for _, seg := range segs {
		switch seg.kind {
		case segWildcard:
			dst[seg.text] = strings.Join(pathParts[pi:], "/")
			return true
		case segParam:
			if pi >= len(pathParts) {
				return false
			}
			dst[seg.text] = pathParts[pi]
			pi++
		case segStatic:
			if pi >= len(pathParts) || !strings.EqualFold(pathParts[pi], seg.text) {
				return false
			}
			pi++
		}
	}
	return pi == len(pathParts)
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Route is a compiled (method, pattern, handler) tuple, the unit of
// dispatch. Its segment list is immutable after compilation (§3 invariant).
type Route struct {
	Method     Method
	Pattern    string
	segments   []segment
	Handler    Handler
	middleware []Middleware

	// router back-references the owning Router so matchingGroups can walk
	// its live group list at dispatch time instead of a registration-time
	// snapshot.
	router *Router
}

// Use appends per-route middleware, applied around the handler after group
// and global middleware. Chainable.
func (rt *Route) Use(mw ...Middleware) *Route {
	rt.middleware = append(rt.middleware, mw...)
	return rt
}

// matchingGroups returns, in group-registration order, every group whose
// prefix prefixes this route's pattern. Recomputed on every dispatch rather
// than cached at AddRoute time, so middleware appended to a group after a
// route under it was already registered still takes effect (spec.md §4.3,
// §9 Design Notes: "applied at dispatch time, not at registration, so that
// middleware registered after routes still takes effect").
func (rt *Route) matchingGroups() []*group {
	var out []*group
	for _, g := range rt.router.groups {
		if strings.HasPrefix(rt.Pattern, g.prefix) {
			out = append(out, g)
		}
	}
	return out
}

// chain builds this route's full handler (group ∪ route ∪ handler), applied
// innermost (the handler) to outermost (the first group middleware).
func (rt *Route) chain() Handler {
	h := rt.Handler
	for i := len(rt.middleware) - 1; i >= 0; i-- {
		h = rt.middleware[i](h)
	}
	groups := rt.matchingGroups()
	for i := len(groups) - 1; i >= 0; i-- {
		mw := groups[i].middleware
		for j := len(mw) - 1; j >= 0; j-- {
			h = mw[j](h)
		}
	}
	return h
}
