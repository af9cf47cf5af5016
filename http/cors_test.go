package http

import "testing"

func TestCORSSimpleRequestReflectsWildcard(t *testing.T) {
	mw := CORS(CORSOptions{AllowOrigin: "*"})
	handler := mw(func(req *Request, res *Response) { res.WithStatus(StatusOK) })

	req := &Request{Method: MethodGet, Headers: HeaderMap{}}
	req.Headers.Set("Origin", "https://example.com")
	var res Response
	res.reset()
	handler(req, &res)

	if v, _ := res.Headers.Get("Access-Control-Allow-Origin"); v != "*" {
		t.Fatalf("expected wildcard origin, got %q", v)
	}
}

func TestCORSPreflightShortCircuitsWithNoContent(t *testing.T) {
	mw := CORS(CORSOptions{AllowOrigin: "*", AllowMethods: "GET, POST"})
	called := false
	handler := mw(func(req *Request, res *Response) { called = true })

	req := &Request{Method: MethodOptions, Headers: HeaderMap{}}
	req.Headers.Set("Origin", "https://example.com")
	req.Headers.Set("Access-Control-Request-Method", "POST")
	var res Response
	res.reset()
	handler(req, &res)

	if called {
		t.Fatalf("expected preflight to short-circuit without calling next")
	}
	if res.Status != StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Status)
	}
	if v, _ := res.Headers.Get("Access-Control-Allow-Methods"); v != "GET, POST" {
		t.Fatalf("expected Allow-Methods GET, POST, got %q", v)
	}
}

func TestCORSNoOriginSkipsHeaders(t *testing.T) {
	mw := CORS(CORSOptions{AllowOrigin: "*"})
	handler := mw(func(req *Request, res *Response) { res.WithStatus(StatusOK) })

	req := &Request{Method: MethodGet, Headers: HeaderMap{}}
	var res Response
	res.reset()
	handler(req, &res)

	if res.Headers.Has("Access-Control-Allow-Origin") {
		t.Fatalf("did not expect CORS headers without an Origin request header")
	}
}
