package http

import "strings"

// Middleware wraps a Handler. It may mutate the request/response, then
// either invoke the wrapped handler exactly once to continue the chain, or
// finalize the response itself to short-circuit. Calling the wrapped
// handler twice is a programming error the library does not attempt to
// recover from (§4.3's re-entrancy contract).
type Middleware func(next Handler) Handler

// group is a (prefix, middleware) pair. Routes added through a Group are
// flattened into Router.routes with the concatenated pattern; which groups
// apply to a route is re-derived from the route's pattern on every dispatch
// (see Route.matchingGroups), not captured once at registration time, so a
// group's middleware slice can keep growing after routes under it exist.
type group struct {
	prefix     string
	middleware []Middleware
}

// Router holds an ordered list of Routes (registration order breaks match
// ties), global middleware, and named groups. It is read-only after the
// owning Server starts accepting connections.
type Router struct {
	routes     []*Route
	middleware []Middleware
	groups     []*group
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{}
}

// Use registers global middleware, executed before routing on every
// request.
func (r *Router) Use(mw ...Middleware) {
	r.middleware = append(r.middleware, mw...)
}

// AddRoute compiles pattern and registers a route for method (MethodAny
// matches every method). It returns the Route so callers can attach
// per-route middleware via Route.Use.
func (r *Router) AddRoute(method Method, pattern string, handler Handler) *Route {
	rt := &Route{
		Method:   method,
		Pattern:  pattern,
		segments: compilePattern(pattern),
		Handler:  handler,
		router:   r,
	}
	r.routes = append(r.routes, rt)
	return rt
}

func (r *Router) GET(pattern string, h Handler) *Route     { return r.AddRoute(MethodGet, pattern, h) }
func (r *Router) POST(pattern string, h Handler) *Route    { return r.AddRoute(MethodPost, pattern, h) }
func (r *Router) PUT(pattern string, h Handler) *Route     { return r.AddRoute(MethodPut, pattern, h) }
func (r *Router) PATCH(pattern string, h Handler) *Route   { return r.AddRoute(MethodPatch, pattern, h) }
func (r *Router) DELETE(pattern string, h Handler) *Route  { return r.AddRoute(MethodDelete, pattern, h) }
func (r *Router) HEAD(pattern string, h Handler) *Route    { return r.AddRoute(MethodHead, pattern, h) }
func (r *Router) OPTIONS(pattern string, h Handler) *Route { return r.AddRoute(MethodOptions, pattern, h) }
func (r *Router) CONNECT(pattern string, h Handler) *Route { return r.AddRoute(MethodConnect, pattern, h) }
func (r *Router) TRACE(pattern string, h Handler) *Route   { return r.AddRoute(MethodTrace, pattern, h) }
func (r *Router) Any(pattern string, h Handler) *Route     { return r.AddRoute(MethodAny, pattern, h) }

// Group returns a helper bound to prefix. AddRoute calls on it forward to
// the main router with the concatenated pattern (a trailing slash on
// prefix collapses against a leading slash on the sub-pattern). Group
// middleware registered after routes have already been added still takes
// effect on those routes, because Route.chain re-derives the set of
// matching groups (and reads their current middleware slice) on every
// dispatch rather than snapshotting it at AddRoute time — see
// Route.matchingGroups and §4.3/§9.
type Group struct {
	router *Router
	g      *group
}

// Group creates a named prefix group.
func (r *Router) Group(prefix string) *Group {
	g := &group{prefix: prefix}
	r.groups = append(r.groups, g)
	return &Group{router: r, g: g}
}

// Use appends middleware to the group.
func (gr *Group) Use(mw ...Middleware) *Group {
	gr.g.middleware = append(gr.g.middleware, mw...)
	return gr
}

// AddRoute registers sub under this group's prefix.
func (gr *Group) AddRoute(method Method, sub string, handler Handler) *Route {
	return gr.router.AddRoute(method, joinPattern(gr.g.prefix, sub), handler)
}

func (gr *Group) GET(sub string, h Handler) *Route    { return gr.AddRoute(MethodGet, sub, h) }
func (gr *Group) POST(sub string, h Handler) *Route   { return gr.AddRoute(MethodPost, sub, h) }
func (gr *Group) PUT(sub string, h Handler) *Route    { return gr.AddRoute(MethodPut, sub, h) }
func (gr *Group) PATCH(sub string, h Handler) *Route  { return gr.AddRoute(MethodPatch, sub, h) }
func (gr *Group) DELETE(sub string, h Handler) *Route { return gr.AddRoute(MethodDelete, sub, h) }

func joinPattern(prefix, sub string) string {
	if strings.HasSuffix(prefix, "/") && strings.HasPrefix(sub, "/") {
		return prefix + sub[1:]
	}
	if !strings.HasSuffix(prefix, "/") && !strings.HasPrefix(sub, "/") && sub != "" {
		return prefix + "/" + sub
	}
	return prefix + sub
}

// Dispatch runs the two-phase algorithm of §4.3: global middleware first,
// then — once the chain yields control to the terminal stage — the first
// path-and-method route match wins; on a path match with no method match it
// emits 405; on no path match at all it leaves the response unset so the
// connection handler can emit 404.
func (r *Router) Dispatch(req *Request, res *Response) {
	h := Handler(r.dispatchTerminal)
	for i := len(r.middleware) - 1; i >= 0; i-- {
		h = r.middleware[i](h)
	}
	h(req, res)
}

func (r *Router) dispatchTerminal(req *Request, res *Response) {
	var pathMatchedMethods []Method

	for _, rt := range r.routes {
		scratch := Params{}
		if !matchPath(rt.segments, req.Path, scratch) {
			continue
		}
		if rt.Method != MethodAny && rt.Method != req.Method {
			pathMatchedMethods = appendMethodUnique(pathMatchedMethods, rt.Method)
			continue
		}

		req.Params = scratch
		rt.chain()(req, res)
		return
	}

	if len(pathMatchedMethods) > 0 {
		writeMethodNotAllowed(res, pathMatchedMethods)
	}

	// Otherwise no route matched the path at all: leave res unset.
}

func appendMethodUnique(methods []Method, m Method) []Method {
	for _, existing := range methods {
		if existing == m {
			return methods
		}
	}
	return append(methods, m)
}

// writeMethodNotAllowed emits 405 with an Allow header listing the path's
// admitted methods in numeric-enum order, adding HEAD whenever GET is
// present but HEAD is not (§4.3).
func writeMethodNotAllowed(res *Response, methods []Method) {
	hasGet, hasHead := false, false
	for _, m := range methods {
		if m == MethodGet {
			hasGet = true
		}
		if m == MethodHead {
			hasHead = true
		}
	}
	if hasGet && !hasHead {
		methods = append(methods, MethodHead)
	}

	ordered := make([]Method, 0, len(methods))
	for m := MethodGet; m <= MethodTrace; m++ {
		for _, have := range methods {
			if have == m {
				ordered = append(ordered, m)
				break
			}
		}
	}

	names := make([]string, 0, len(ordered))
	for _, m := range ordered {
		names = append(names, m.String())
	}

	res.WithStatus(StatusMethodNotAllowed).
		WithHeader("Allow", strings.Join(names, ", ")).
		Send([]byte("Method Not Allowed\n"))
}
