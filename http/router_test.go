package http

import "testing"

func TestDispatchFirstMatchWins(t *testing.T) {
	r := NewRouter()
	r.GET("/items/:id", func(req *Request, res *Response) { res.WithText("first") })
	r.GET("/items/:id", func(req *Request, res *Response) { res.WithText("second") })

	req := Request{Method: MethodGet, Path: "/items/5"}
	var res Response
	res.reset()
	r.Dispatch(&req, &res)

	if string(res.Body) != "first" {
		t.Fatalf("expected the first registered route to win, got %q", res.Body)
	}
}

func TestDispatchMethodNotAllowedListsAllowedMethods(t *testing.T) {
	r := NewRouter()
	r.GET("/items", func(req *Request, res *Response) {})
	r.POST("/items", func(req *Request, res *Response) {})

	req := Request{Method: MethodDelete, Path: "/items"}
	var res Response
	res.reset()
	r.Dispatch(&req, &res)

	if res.Status != StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Status)
	}
	allow, _ := res.Headers.Get("Allow")
	if allow != "GET, POST, HEAD" {
		t.Fatalf("expected Allow: GET, POST, HEAD, got %q", allow)
	}
}

func TestDispatchNoMatchLeavesResponseUnset(t *testing.T) {
	r := NewRouter()
	r.GET("/items", func(req *Request, res *Response) {})

	req := Request{Method: MethodGet, Path: "/nope"}
	var res Response
	res.reset()
	r.Dispatch(&req, &res)

	if res.Ended {
		t.Fatalf("expected response to be left unset for an unmatched path")
	}
}

func TestGroupMiddlewareAppliesToGroupRoutesOnly(t *testing.T) {
	r := NewRouter()
	var seen []string

	g := r.Group("/v1")
	g.Use(func(next Handler) Handler {
		return func(req *Request, res *Response) {
			seen = append(seen, "group")
			next(req, res)
		}
	})
	g.GET("/ping", func(req *Request, res *Response) { res.WithStatus(StatusOK) })
	r.GET("/outside", func(req *Request, res *Response) { res.WithStatus(StatusOK) })

	req1 := Request{Method: MethodGet, Path: "/v1/ping"}
	var res1 Response
	res1.reset()
	r.Dispatch(&req1, &res1)

	req2 := Request{Method: MethodGet, Path: "/outside"}
	var res2 Response
	res2.reset()
	r.Dispatch(&req2, &res2)

	if len(seen) != 1 || seen[0] != "group" {
		t.Fatalf("expected group middleware to run exactly once, got %v", seen)
	}
}

func TestGroupMiddlewareRegisteredAfterRouteStillApplies(t *testing.T) {
	r := NewRouter()
	var seen []string

	g := r.Group("/v1")
	g.GET("/ping", func(req *Request, res *Response) { res.WithStatus(StatusOK) })

	// Use is called only after the route under the group already exists —
	// the group's middleware must still run on dispatch.
	g.Use(func(next Handler) Handler {
		return func(req *Request, res *Response) {
			seen = append(seen, "group")
			next(req, res)
		}
	})

	req := Request{Method: MethodGet, Path: "/v1/ping"}
	var res Response
	res.reset()
	r.Dispatch(&req, &res)

	if len(seen) != 1 || seen[0] != "group" {
		t.Fatalf("expected late-registered group middleware to run, got %v", seen)
	}
}

func TestDispatchRunsGlobalMiddlewareBeforeRouting(t *testing.T) {
	r := NewRouter()
	var order []string
	r.Use(func(next Handler) Handler {
		return func(req *Request, res *Response) {
			order = append(order, "global")
			next(req, res)
		}
	})
	r.GET("/x", func(req *Request, res *Response) {
		order = append(order, "handler")
		res.WithStatus(StatusOK)
	})

	req := Request{Method: MethodGet, Path: "/x"}
	var res Response
	res.reset()
	r.Dispatch(&req, &res)

	if len(order) != 2 || order[0] != "global" || order[1] != "handler" {
		t.Fatalf("expected [global handler], got %v", order)
	}
}
