package http

import "testing"

func TestCookieStringIncludesAttributes(t *testing.T) {
	c := &Cookie{Name: "SID", Value: "abc123", Path: "/", HttpOnly: true, Secure: true, SameSite: SameSiteLaxMode}
	s := c.String()
	if s != "SID=abc123; Path=/; HttpOnly; Secure; SameSite=Lax" {
		t.Fatalf("unexpected cookie string: %q", s)
	}
}

func TestResponseAddCookieEmitsOneHeaderPerCookie(t *testing.T) {
	var res Response
	res.reset()
	res.AddCookie(&Cookie{Name: "a", Value: "1"})
	res.AddCookie(&Cookie{Name: "b", Value: "2"})

	vals, ok := res.Headers.Values("Set-Cookie")
	if !ok || len(vals) != 2 {
		t.Fatalf("expected two distinct Set-Cookie header values, got %v", vals)
	}
	if vals[0] != "a=1" || vals[1] != "b=2" {
		t.Fatalf("unexpected Set-Cookie values: %v", vals)
	}
}

func TestResponseAddCookieDropsInvalidCookie(t *testing.T) {
	var res Response
	res.reset()
	res.AddCookie(&Cookie{Name: "bad name", Value: "1"})

	if res.Headers.Has("Set-Cookie") {
		t.Fatalf("expected an invalid cookie name to be dropped, not emitted")
	}
}

func TestParseCookiesSplitsMultipleCookiePairs(t *testing.T) {
	cookies, err := ParseCookies("a=1; b=2; c=3")
	if err != nil {
		t.Fatalf("ParseCookies error: %v", err)
	}
	if len(cookies) != 3 {
		t.Fatalf("expected three cookies, got %d", len(cookies))
	}
	if cookies[1].Name != "b" || cookies[1].Value != "2" {
		t.Fatalf("expected second cookie b=2, got %+v", cookies[1])
	}
}
