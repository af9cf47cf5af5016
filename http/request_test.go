package http

import "testing"

func TestRequestCookieFindsNamedCookieViaParseCookies(t *testing.T) {
	req := &Request{Headers: HeaderMap{}}
	req.Headers.Set("Cookie", "a=1; SID=abc123; b=2")

	c, err := req.Cookie("SID")
	if err != nil {
		t.Fatalf("Cookie returned error: %v", err)
	}
	if c.Value != "abc123" {
		t.Fatalf("expected abc123, got %q", c.Value)
	}
}

func TestRequestCookieMissingHeaderReturnsErrNoCookie(t *testing.T) {
	req := &Request{Headers: HeaderMap{}}

	if _, err := req.Cookie("SID"); err != ErrNoCookie {
		t.Fatalf("expected ErrNoCookie, got %v", err)
	}
}

func TestRequestCookieUnknownNameReturnsErrNoCookie(t *testing.T) {
	req := &Request{Headers: HeaderMap{}}
	req.Headers.Set("Cookie", "a=1")

	if _, err := req.Cookie("SID"); err != ErrNoCookie {
		t.Fatalf("expected ErrNoCookie, got %v", err)
	}
}
