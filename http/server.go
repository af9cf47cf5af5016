package http

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures a Server (§6's `Server(options)`).
type Options struct {
	HeaderTimeoutMs int // socket receive timeout while reading the start-line/headers
	BodyTimeoutMs   int // socket receive timeout once the parser enters StateBody
	IdleTimeoutMs   int // socket receive timeout between requests on a kept-alive connection

	Backlog    int  // not applied: the listener uses the operating system's default backlog
	ReusePort  bool // SO_REUSEPORT on platforms that support it
	ReuseAddr  bool // SO_REUSEADDR on platforms that support it
	Workers    int  // >0: bounded worker-pool size; 0: one goroutine per connection
	Acceptors  int  // number of goroutines calling Accept concurrently; <1 treated as 1

	Compression CompressionOptions

	// Name is emitted as the Server response header.
	Name string
}

func (o Options) headerTimeout() time.Duration {
	if o.HeaderTimeoutMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(o.HeaderTimeoutMs) * time.Millisecond
}

func (o Options) bodyTimeout() time.Duration {
	if o.BodyTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(o.BodyTimeoutMs) * time.Millisecond
}

func (o Options) idleTimeout() time.Duration {
	if o.IdleTimeoutMs <= 0 {
		return 120 * time.Second
	}
	return time.Duration(o.IdleTimeoutMs) * time.Millisecond
}

func (o Options) serverName() string {
	if o.Name == "" {
		return "sable"
	}
	return o.Name
}

// TLSConfig is the hook-only TLS collaborator §6 describes: a bundle of
// file paths consumed by Run to wrap the accepted net.Listener.
// Certificate generation, ACME, and DH-params handling are out of scope.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// Server is an embeddable HTTP/1.1 server: register routes/middleware
// against its embedded Router, then call Run to accept connections on a
// TCP listener and dispatch them through the router.
type Server struct {
	*Router

	Options Options
	TLS     *TLSConfig

	listener net.Listener
	pool     *workerPool

	started atomic.Bool
	closing atomic.Bool
	wg      sync.WaitGroup

	logger *slog.Logger
}

// NewServer constructs a Server with a fresh Router. Routes/middleware may
// be registered until Run is called; the Router is read-only once accepting
// begins (§5). Observability is not mounted automatically — it is ordinary
// opt-in middleware (see Observability in middleware.go) so a host can
// choose where in its chain it sits, e.g. after RequestID so its logger
// picks up the request id.
func NewServer(opts Options) *Server {
	return &Server{
		Router:  NewRouter(),
		Options: opts,
		logger:  slog.Default().With("component", "http.Server"),
	}
}

// Run starts the acceptor on ip:port and blocks, accepting connections
// until Stop is called. It returns false if socket setup fails, matching
// §6's `Server.run(ip, port) → bool` contract; failures are logged via
// log/slog rather than returned, since host code is expected to treat a
// bind failure the same way regardless of cause.
func (s *Server) Run(ip string, port int) bool {
	addr := net.JoinHostPort(ip, strconv.Itoa(port))

	lc := net.ListenConfig{Control: reuseControl(s.Options.ReuseAddr, s.Options.ReusePort)}
	listener, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		s.logger.Error("listen failed", "addr", addr, "error", err)
		return false
	}

	if s.TLS != nil {
		cert, err := tls.LoadX509KeyPair(s.TLS.CertFile, s.TLS.KeyFile)
		if err != nil {
			s.logger.Error("tls certificate load failed", "error", err)
			listener.Close()
			return false
		}
		listener = tls.NewListener(listener, &tls.Config{Certificates: []tls.Certificate{cert}})
	}

	s.listener = listener
	s.started.Store(true)

	acceptors := s.Options.Acceptors
	if acceptors < 1 {
		acceptors = 1
	}
	if s.Options.Workers > 0 {
		s.pool = newWorkerPool(s.Options.Workers, s.serveConnRecover)
	}

	s.wg.Add(acceptors)
	for i := 0; i < acceptors; i++ {
		go s.acceptLoop()
	}
	s.wg.Wait()
	return true
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closing.Load() {
				return
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("accept error", "error", err)
			continue
		}

		if s.pool != nil {
			if err := s.pool.submit(conn); err != nil {
				s.logger.Warn("worker pool saturated, dropping connection", "error", err)
				conn.Close()
			}
			continue
		}

		go s.serveConnRecover(conn)
	}
}

// serveConnRecover isolates one connection's panics (e.g. from a handler)
// from the acceptor and from sibling connections.
func (s *Server) serveConnRecover(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic serving connection", "panic", r)
		}
	}()
	s.ServeConn(conn)
}

// Stop shuts down the listener and waits for accept loops to return;
// in-flight connections are allowed to finish, bounded by their next
// timeout (§5). Idempotent.
func (s *Server) Stop() error {
	if !s.closing.CompareAndSwap(false, true) {
		return nil
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			return err
		}
	}
	s.wg.Wait()
	return nil
}

// ServeConn drives the per-connection loop of §4.5: for each request, reset
// the parser, wait for its first bytes (under the header deadline for the
// first request, the idle deadline for later ones), bound the rest of its
// start-line and headers with the header deadline, consume bytes until the
// request is complete or errors, dispatch through the router, serialize the
// response, and decide whether to keep the connection alive.
func (s *Server) ServeConn(conn net.Conn) {
	defer conn.Close()

	bw := bufio.NewWriterSize(conn, DefaultWriteBufferSize)
	readBuf := make([]byte, DefaultReadBufferSize)

	var parser Parser
	conn.SetReadDeadline(time.Now().Add(s.Options.headerTimeout()))
	for {
		parser.Reset()

		enteredBody := false
		receivedAny := false

		for !parser.Complete() {
			if _, isErr := parser.Error(); isErr {
				break
			}
			n, err := conn.Read(readBuf)
			if n > 0 {
				if !receivedAny {
					receivedAny = true
					conn.SetReadDeadline(time.Now().Add(s.Options.headerTimeout()))
				}
				data := readBuf[:n]
				for len(data) > 0 && !parser.Complete() {
					if _, isErr := parser.Error(); isErr {
						break
					}
					c := parser.Consume(data)
					if c == 0 {
						break
					}
					data = data[c:]
				}
				if parser.State() == StateBody && !enteredBody {
					enteredBody = true
					conn.SetReadDeadline(time.Now().Add(s.Options.bodyTimeout()))
				}
			}
			if err != nil {
				if !parser.Complete() {
					if _, isErr := parser.Error(); !isErr {
						// Connection closed or timed out mid-request: no
						// response is sent (§8 boundary behavior).
						return
					}
				}
				break
			}
		}

		if msg, isErr := parser.Error(); isErr {
			var badReq Request
			badReq.fromParser(&parser)
			var res Response
			res.reset()
			res.WithStatus(StatusBadRequest).WithText("Bad Request: " + msg + "\n")
			s.writeResponse(conn, bw, &badReq, &res)
			return
		}

		var req Request
		req.fromParser(&parser)

		var res Response
		res.reset()

		s.Router.Dispatch(&req, &res)
		if !res.Ended {
			NotFoundHandler(&req, &res)
		}
		if !res.Ended {
			res.End()
		}

		if err := s.writeResponse(conn, bw, &req, &res); err != nil {
			return
		}

		if shouldClose(&req, &res) {
			return
		}

		conn.SetReadDeadline(time.Now().Add(s.Options.idleTimeout()))
	}
}

// writeResponse serializes and flushes res, using req's method to decide
// whether to suppress the body (HEAD) and Accept-Encoding to negotiate
// compression.
func (s *Server) writeResponse(conn net.Conn, bw *bufio.Writer, req *Request, res *Response) error {
	bw.Reset(conn)
	serializeResponse(bw, req, res, s.Options.Compression, s.Options.serverName())
	return bw.Flush()
}

// shouldClose implements §4.5's keep-alive policy: the response's
// Connection header is authoritative (Design Notes' Open Question
// resolution), falling back to the request's when the response didn't set
// one.
func shouldClose(req *Request, res *Response) bool {
	if v, ok := res.Headers.Get("Connection"); ok {
		return connectionWantsClose(v)
	}
	if v, ok := req.Headers.Get("Connection"); ok {
		return connectionWantsClose(v)
	}
	return false
}

func connectionWantsClose(v string) bool {
	hasClose := false
	for _, tok := range strings.Split(v, ",") {
		tok = strings.TrimSpace(tok)
		if strings.EqualFold(tok, "close") {
			hasClose = true
		}
	}
	return hasClose
}
