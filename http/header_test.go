package http

import "testing"

func TestHeaderMapCaseInsensitiveGet(t *testing.T) {
	var h HeaderMap
	h.Set("Content-Type", "text/plain")

	if v, ok := h.Get("content-type"); !ok || v != "text/plain" {
		t.Fatalf("expected case-insensitive lookup to find text/plain, got %q, %v", v, ok)
	}
}

func TestHeaderMapSetReplacesAdds(t *testing.T) {
	var h HeaderMap
	h.Add("X-A", "1")
	h.Add("X-A", "2")
	if vals, _ := h.Values("x-a"); len(vals) != 2 {
		t.Fatalf("expected two values, got %v", vals)
	}

	h.Set("X-A", "reset")
	vals, _ := h.Values("x-a")
	if len(vals) != 1 || vals[0] != "reset" {
		t.Fatalf("expected Set to replace all values, got %v", vals)
	}
}

func TestHeaderMapAppendVaryDeduplicates(t *testing.T) {
	var h HeaderMap
	h.AppendVary("Accept-Encoding")
	h.AppendVary("Accept-Encoding")
	h.AppendVary("Origin")

	v, _ := h.Get("Vary")
	if v != "Accept-Encoding, Origin" {
		t.Fatalf("expected deduplicated Vary, got %q", v)
	}
}

func TestHeaderMapEachYieldsOnePerValue(t *testing.T) {
	var h HeaderMap
	h.Add("Set-Cookie", "a=1")
	h.Add("Set-Cookie", "b=2")

	var seen []string
	h.Each(func(key, value string) {
		if key == "Set-Cookie" {
			seen = append(seen, value)
		}
	})
	if len(seen) != 2 {
		t.Fatalf("expected two Set-Cookie lines, got %v", seen)
	}
}
