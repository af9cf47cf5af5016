package http

import (
	"testing"
	"time"
)

func TestRequestIDSetsHeaderAndContext(t *testing.T) {
	var capturedID string
	handler := RequestID()(func(req *Request, res *Response) {
		capturedID = RequestIDFromContext(req.Context())
		res.WithStatus(StatusOK)
	})

	req := &Request{Method: MethodGet, Path: "/x"}
	var res Response
	res.reset()
	handler(req, &res)

	headerID, ok := res.Headers.Get("X-Request-Id")
	if !ok || headerID == "" {
		t.Fatalf("expected X-Request-Id header to be set")
	}
	if capturedID != headerID {
		t.Fatalf("expected context id %q to match header id %q", capturedID, headerID)
	}
}

func TestRecoverConvertsPanicToInternalServerError(t *testing.T) {
	handler := Recover()(func(req *Request, res *Response) {
		panic("boom")
	})

	req := &Request{Method: MethodGet, Path: "/x"}
	var res Response
	res.reset()
	handler(req, &res)

	if res.Status != StatusInternalServerError {
		t.Fatalf("expected 500 after recovered panic, got %d", res.Status)
	}
}

func TestRateLimiterBlocksAfterMax(t *testing.T) {
	mw := RateLimiter(RateLimiterOptions{Window: time.Minute, Max: 2})
	handler := mw(func(req *Request, res *Response) { res.WithStatus(StatusOK) })

	var statuses []uint16
	for i := 0; i < 3; i++ {
		req := &Request{Method: MethodGet, Path: "/x"}
		var res Response
		res.reset()
		handler(req, &res)
		statuses = append(statuses, res.Status)
	}

	if statuses[0] != StatusOK || statuses[1] != StatusOK {
		t.Fatalf("expected the first two requests to pass, got %v", statuses)
	}
	if statuses[2] != StatusTooManyRequests {
		t.Fatalf("expected the third request to be rate limited, got %v", statuses)
	}
}
