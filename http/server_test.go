package http

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

func newTestServer() *Server {
	s := NewServer(Options{
		HeaderTimeoutMs: 2000,
		BodyTimeoutMs:   2000,
		IdleTimeoutMs:   2000,
	})
	s.GET("/ping", func(req *Request, res *Response) { res.WithText("pong") })
	return s
}

// readResponse reads one HTTP response off r using the real status-line and
// header framing, returning the status line and body bytes.
func readResponse(t *testing.T, r *bufio.Reader) (statusLine string, body []byte) {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("reading status line: %v", err)
	}
	statusLine = strings.TrimRight(line, "\r\n")

	contentLength := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("reading headers: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			parts := strings.SplitN(line, ":", 2)
			n := 0
			for _, c := range strings.TrimSpace(parts[1]) {
				if c < '0' || c > '9' {
					break
				}
				n = n*10 + int(c-'0')
			}
			contentLength = n
		}
	}

	if contentLength > 0 {
		body = make([]byte, contentLength)
		if _, err := io.ReadFull(r, body); err != nil {
			t.Fatalf("reading body: %v", err)
		}
	}
	return statusLine, body
}

func TestServeConnMalformedStartLineRespondsBadRequestAndCloses(t *testing.T) {
	s := newTestServer()
	client, server := net.Pipe()

	done := make(chan struct{})
	go func() {
		s.ServeConn(server)
		close(done)
	}()

	go func() {
		client.Write([]byte("GARBAGE\r\n\r\n"))
	}()

	r := bufio.NewReader(client)
	statusLine, _ := readResponse(t, r)
	if !strings.HasPrefix(statusLine, "HTTP/1.1 400") {
		t.Fatalf("expected a 400 status line, got %q", statusLine)
	}

	// The connection handler closes after writing an error response; the
	// next read must observe EOF, not a second response.
	client.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 16)
	if n, err := client.Read(buf); err != io.EOF && n != 0 {
		t.Fatalf("expected EOF after the 400 response, got n=%d err=%v", n, err)
	}

	<-done
}

func TestServeConnTruncatedBodyClosesWithoutResponse(t *testing.T) {
	s := newTestServer()
	client, server := net.Pipe()

	done := make(chan struct{})
	go func() {
		s.ServeConn(server)
		close(done)
	}()

	go func() {
		client.Write([]byte("POST /ping HTTP/1.1\r\nContent-Length: 5\r\n\r\nabc"))
		client.Close()
	}()

	client.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 16)
	n, err := client.Read(buf)
	if n != 0 || err == nil {
		t.Fatalf("expected no response bytes and an error/EOF, got n=%d err=%v data=%q", n, err, buf[:n])
	}

	<-done
}

func TestServeConnKeepAliveReadsSecondRequestOnSameConnection(t *testing.T) {
	s := newTestServer()
	client, server := net.Pipe()

	done := make(chan struct{})
	go func() {
		s.ServeConn(server)
		close(done)
	}()

	go func() {
		client.Write([]byte("GET /ping HTTP/1.1\r\nHost: x\r\n\r\n"))
		client.Write([]byte("GET /ping HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
	}()

	r := bufio.NewReader(client)

	status1, body1 := readResponse(t, r)
	if !strings.HasPrefix(status1, "HTTP/1.1 200") || string(body1) != "pong" {
		t.Fatalf("unexpected first response: %q %q", status1, body1)
	}

	status2, body2 := readResponse(t, r)
	if !strings.HasPrefix(status2, "HTTP/1.1 200") || string(body2) != "pong" {
		t.Fatalf("unexpected second response: %q %q", status2, body2)
	}

	// Connection: close on the second request means the handler closes
	// after writing it.
	client.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 16)
	if n, err := client.Read(buf); err != io.EOF && n != 0 {
		t.Fatalf("expected EOF after the close-requested response, got n=%d err=%v", n, err)
	}

	<-done
}
