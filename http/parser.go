package http

import (
	"strconv"
	"strings"
)

// ParseState is a state in the incremental HTTP/1.1 parser's state machine
// (§4.2). Transitions are monotonic: StateStartLine → StateHeaders →
// (StateBody | StateComplete); StateError is a terminal sink; StateComplete
// is terminal until Reset.
type ParseState uint8

const (
	StateStartLine ParseState = iota
	StateHeaders
	StateBody
	StateComplete
	StateError
)

// Parser is an incremental HTTP/1.1 request parser over byte buffers
// arriving from a socket. Consume may be called repeatedly with partial
// data; it reports how many bytes it consumed so the caller can retain the
// remainder. The parser never blocks and never throws — every failure is a
// transition into StateError carrying a short diagnostic.
//
// Grounded on the teacher's Request.Read (bufio line accumulation), rewritten
// to tolerate buffers that split mid-line or mid-body across calls instead of
// assuming a blocking io.Reader.
type Parser struct {
	state  ParseState
	errMsg string

	line []byte // accumulates the current start-line/header line

	Method    Method
	RawTarget string
	Path      string
	Version   string
	Headers   HeaderMap

	contentLength int
	bodyReceived  int
	Body          []byte
}

// State returns the parser's current state.
func (p *Parser) State() ParseState { return p.state }

// Complete reports whether a full request has been parsed.
func (p *Parser) Complete() bool { return p.state == StateComplete }

// Error reports whether the parser failed, and the diagnostic message.
func (p *Parser) Error() (string, bool) {
	return p.errMsg, p.state == StateError
}

// Reset clears all fields so the instance can parse the next request on a
// kept-alive connection.
func (p *Parser) Reset() {
	p.state = StateStartLine
	p.errMsg = ""
	p.line = p.line[:0]
	p.Method = MethodUnknown
	p.RawTarget = ""
	p.Path = ""
	p.Version = ""
	p.Headers.Reset()
	p.contentLength = 0
	p.bodyReceived = 0
	p.Body = nil
}

func (p *Parser) fail(msg string) {
	p.state = StateError
	p.errMsg = msg
}

// Consume feeds data into the parser and returns how many leading bytes it
// consumed. Partial consumption is expected and normal: the caller retains
// any unconsumed suffix and calls Consume again once more data arrives.
// Consume is a no-op (consumes nothing) once the parser is Complete or
// Error.
func (p *Parser) Consume(data []byte) int {
	consumed := 0
	for consumed < len(data) {
		switch p.state {
		case StateComplete, StateError:
			return consumed

		case StateStartLine, StateHeaders:
			nl := indexByte(data[consumed:], '\n')
			if nl < 0 {
				if len(p.line)+len(data)-consumed > MaxStartLineAndHeaders {
					p.fail("request line or headers too large")
					return len(data)
				}
				p.line = append(p.line, data[consumed:]...)
				return len(data)
			}
			p.line = append(p.line, data[consumed:consumed+nl]...)
			consumed += nl + 1

			lineStr := trimCR(p.line)
			p.line = p.line[:0]

			if p.state == StateStartLine {
				p.parseStartLine(lineStr)
			} else {
				p.parseHeaderLine(lineStr)
			}
			if p.state == StateError {
				return len(data)
			}

		case StateBody:
			need := p.contentLength - p.bodyReceived
			take := len(data) - consumed
			if take > need {
				take = need
			}
			p.Body = append(p.Body, data[consumed:consumed+take]...)
			p.bodyReceived += take
			consumed += take
			if p.bodyReceived >= p.contentLength {
				p.state = StateComplete
				return consumed
			}
			return consumed
		}
	}
	return consumed
}

func trimCR(line []byte) string {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return string(line)
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func (p *Parser) parseStartLine(line string) {
	if line == "" {
		p.fail("empty request line")
		return
	}

	firstSpace := strings.IndexByte(line, ' ')
	if firstSpace < 0 {
		p.fail("malformed request line")
		return
	}
	rest := line[firstSpace+1:]
	secondSpace := strings.IndexByte(rest, ' ')
	if secondSpace < 0 {
		p.fail("malformed request line")
		return
	}
	methodTok := line[:firstSpace]
	target := rest[:secondSpace]
	version := rest[secondSpace+1:]
	// Exactly two spaces: reject anything carrying a third token.
	if strings.IndexByte(version, ' ') >= 0 {
		p.fail("malformed request line")
		return
	}

	method := ParseMethod(methodTok)
	if method == MethodUnknown {
		p.fail("Unknown HTTP method")
		return
	}
	if version != "HTTP/1.1" && version != "HTTP/1.0" {
		p.fail("Unsupported HTTP version")
		return
	}
	if target == "" {
		p.fail("malformed request line")
		return
	}

	p.Method = method
	p.RawTarget = target
	p.Version = version
	if q := strings.IndexByte(target, '?'); q >= 0 {
		p.Path = target[:q]
	} else {
		p.Path = target
	}

	p.state = StateHeaders
}

func (p *Parser) parseHeaderLine(line string) {
	if line == "" {
		p.endHeaders()
		return
	}

	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		p.fail("Header missing ':'")
		return
	}
	key := strings.TrimRight(line[:colon], " \t")
	value := strings.TrimLeft(line[colon+1:], " \t")
	p.Headers.Set(key, value)
}

func (p *Parser) endHeaders() {
	if te, ok := p.Headers.Get("Transfer-Encoding"); ok {
		if strings.Contains(strings.ToLower(te), "chunked") {
			p.fail("Chunked transfer-encoding unsupported")
			return
		}
	}

	if cl, ok := p.Headers.Get("Content-Length"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err != nil || n < 0 {
			p.fail("Invalid Content-Length")
			return
		}
		p.contentLength = n
		if n == 0 {
			p.Body = []byte{}
			p.state = StateComplete
			return
		}
		p.Body = make([]byte, 0, n)
		p.state = StateBody
		return
	}

	p.Body = []byte{}
	p.state = StateComplete
}
