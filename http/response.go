package http

import (
	"encoding/json"
	"strconv"
)

// Response accumulates a status, headers, and body for one request. Once
// Ended is true, every method (Write, Send, WithText, WithHTML, WithJSON,
// Redirect, End, WithStatus, WithHeader, AddCookie) leaves every field
// unchanged. Only Write reports this, by returning false; the chainable
// methods return the response as it is, with no failure signal.
type Response struct {
	Status  uint16
	Headers HeaderMap
	Body    []byte
	Ended   bool
}

// reset prepares the response for the next request on a kept-alive
// connection.
func (res *Response) reset() {
	res.Status = StatusOK
	res.Headers.Reset()
	res.Body = res.Body[:0]
	res.Ended = false
}

// WithStatus sets the status code. Chainable.
func (res *Response) WithStatus(code uint16) *Response {
	if res.Ended {
		return res
	}
	res.Status = code
	return res
}

// WithHeader sets a response header. Chainable.
func (res *Response) WithHeader(key, value string) *Response {
	if res.Ended {
		return res
	}
	res.Headers.Set(key, value)
	return res
}

// AddCookie appends a Set-Cookie header, dropping cookie silently if it
// fails RFC 6265 validation (Cookie.Valid) rather than emitting a malformed
// header. Each cookie is emitted on its own header line at serialization
// time — the teacher's original implementation joined multiple Set-Cookie
// values with ", " into one field, which violates RFC 6265 §3; this is the
// fix spec.md §9's Open Question calls for.
func (res *Response) AddCookie(cookie *Cookie) *Response {
	if res.Ended {
		return res
	}
	if err := cookie.Valid(); err != nil {
		return res
	}
	res.Headers.Add("Set-Cookie", cookie.String())
	return res
}

// Write appends to the body without ending the response, so a handler can
// stream multiple writes before finalizing with End/Send/JSON/HTML.
func (res *Response) Write(p []byte) (int, bool) {
	if res.Ended {
		return 0, false
	}
	res.Body = append(res.Body, p...)
	return len(p), true
}

// End finalizes the response, fixing Content-Length to the current body
// length unless the caller already set an explicit Content-Length header
// (§3 invariant).
func (res *Response) End() *Response {
	if res.Ended {
		return res
	}
	if !res.Headers.Has("Content-Length") {
		res.Headers.Set("Content-Length", strconv.Itoa(len(res.Body)))
	}
	res.Ended = true
	return res
}

// Send writes body and ends the response.
func (res *Response) Send(body []byte) *Response {
	if res.Ended {
		return res
	}
	res.Body = append(res.Body, body...)
	return res.End()
}

// WithText sends body as text/plain and ends the response.
func (res *Response) WithText(body string) *Response {
	if res.Ended {
		return res
	}
	if !res.Headers.Has("Content-Type") {
		res.Headers.Set("Content-Type", "text/plain; charset=utf-8")
	}
	return res.Send([]byte(body))
}

// WithHTML sends body as text/html and ends the response.
func (res *Response) WithHTML(body string) *Response {
	if res.Ended {
		return res
	}
	if !res.Headers.Has("Content-Type") {
		res.Headers.Set("Content-Type", "text/html; charset=utf-8")
	}
	return res.Send([]byte(body))
}

// WithJSON encodes payload as application/json and ends the response. A
// string payload is sent verbatim, matching the teacher's response.go
// convenience of accepting a pre-encoded JSON string.
func (res *Response) WithJSON(payload any) *Response {
	if res.Ended {
		return res
	}
	if !res.Headers.Has("Content-Type") {
		res.Headers.Set("Content-Type", "application/json")
	}
	if s, ok := payload.(string); ok {
		return res.Send([]byte(s))
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		res.Status = StatusInternalServerError
		return res.Send([]byte(`{"error":"encoding failure"}`))
	}
	return res.Send(encoded)
}

// Redirect sends a redirect response to location with the given status
// (301/302/303/307/308) and ends the response.
func (res *Response) Redirect(location string, status uint16) *Response {
	if res.Ended {
		return res
	}
	res.Status = status
	res.Headers.Set("Location", location)
	return res.Send(nil)
}

// ParseJSONBody checks Content-Type and decodes the request body as JSON
// into v. It is the external JSON-body-parsing collaborator §6 describes;
// the core never calls it.
func ParseJSONBody(req *Request, v any) bool {
	ct, ok := req.Headers.Get("Content-Type")
	if !ok {
		return false
	}
	if idx := indexByteStr(ct, ';'); idx >= 0 {
		ct = ct[:idx]
	}
	if ct != "application/json" {
		return false
	}
	return json.Unmarshal(req.Body, v) == nil
}

func indexByteStr(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
