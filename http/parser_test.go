package http

import "testing"

func TestParserConsumesCompleteRequestInOneShot(t *testing.T) {
	var p Parser
	msg := []byte("GET /hello?x=1 HTTP/1.1\r\nHost: example.com\r\nContent-Length: 5\r\n\r\nhowdy")

	n := p.Consume(msg)
	if n != len(msg) {
		t.Fatalf("expected to consume %d bytes, consumed %d", len(msg), n)
	}
	if !p.Complete() {
		t.Fatalf("expected parser to be complete")
	}
	if p.Method != MethodGet {
		t.Errorf("expected GET, got %v", p.Method)
	}
	if p.Path != "/hello" {
		t.Errorf("expected path /hello, got %q", p.Path)
	}
	if string(p.Body) != "howdy" {
		t.Errorf("expected body %q, got %q", "howdy", p.Body)
	}
}

func TestParserIsIndependentOfBufferSplitBoundaries(t *testing.T) {
	full := []byte("POST /items HTTP/1.1\r\nHost: example.com\r\nContent-Length: 4\r\n\r\nabcd")

	for split := 1; split < len(full); split++ {
		var p Parser
		a, b := full[:split], full[split:]

		na := p.Consume(a)
		for na < len(a) && !p.Complete() {
			c := p.Consume(a[na:])
			if c == 0 {
				break
			}
			na += c
		}
		if !p.Complete() {
			nb := p.Consume(b)
			for nb < len(b) && !p.Complete() {
				c := p.Consume(b[nb:])
				if c == 0 {
					break
				}
				nb += c
			}
		}
		if !p.Complete() {
			t.Fatalf("split at %d: parser did not complete", split)
		}
		if string(p.Body) != "abcd" {
			t.Errorf("split at %d: expected body abcd, got %q", split, p.Body)
		}
	}
}

func TestParserRejectsMalformedStartLine(t *testing.T) {
	var p Parser
	p.Consume([]byte("NOTAMETHOD /x HTTP/1.1\r\n\r\n"))
	if _, isErr := p.Error(); !isErr {
		t.Fatalf("expected an error state for an unrecognized method")
	}
}

func TestParserResetAllowsReuseForNextRequest(t *testing.T) {
	var p Parser
	p.Consume([]byte("GET /one HTTP/1.1\r\n\r\n"))
	if !p.Complete() {
		t.Fatalf("expected first request complete")
	}

	p.Reset()
	p.Consume([]byte("GET /two HTTP/1.1\r\n\r\n"))
	if !p.Complete() {
		t.Fatalf("expected second request complete")
	}
	if p.Path != "/two" {
		t.Errorf("expected /two after reset, got %q", p.Path)
	}
}
