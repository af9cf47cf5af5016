package http

import (
	"context"
	"log/slog"
	"sync"
	"time"

	googleuuid "github.com/google/uuid"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/sablehttp/sable/session"
	"github.com/sablehttp/sable/session/storage"
	"github.com/sablehttp/sable/uuid"
)

type contextKey int

const (
	ctxKeyRequestID contextKey = iota
	ctxKeyLogger
	ctxKeySession
)

// RequestIDFromContext returns the request id installed by RequestID, or ""
// if none is present.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// LoggerFromContext returns the request-scoped logger installed by the otel
// middleware, falling back to slog.Default().
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKeyLogger).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// SessionFromContext returns the session installed by SessionMiddleware, if
// any.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(ctxKeySession).(session.Session)
	return s, ok
}

// RequestID assigns every request a unique id — via github.com/google/uuid
// (present in the teacher's go.mod but never imported by any teacher
// package; wired here, see DESIGN.md) — attaches it to the request context,
// and echoes it as X-Request-Id so a caller can correlate logs across a
// proxy hop.
func RequestID() Middleware {
	return func(next Handler) Handler {
		return func(req *Request, res *Response) {
			id := googleuuid.New().String()
			res.WithHeader("X-Request-Id", id)
			*req = *req.WithContext(context.WithValue(req.Context(), ctxKeyRequestID, id))
			next(req, res)
		}
	}
}

// Recover converts a panicking handler into a 500 response instead of
// killing the connection's goroutine, so one misbehaving handler cannot
// take down sibling requests sharing the process (handlers' own exceptions
// are, per §7, not caught by the core — this is host-installed recovery
// middleware, the pattern §7 calls out explicitly).
func Recover() Middleware {
	return func(next Handler) Handler {
		return func(req *Request, res *Response) {
			defer func() {
				if r := recover(); r != nil {
					LoggerFromContext(req.Context()).Error("handler panic", "panic", r, "path", req.Path)
					if !res.Ended {
						res.WithStatus(StatusInternalServerError).WithText("Internal Server Error\n")
					}
				}
			}()
			next(req, res)
		}
	}
}

// otelTracerName is the instrumentation name reported to the configured
// TracerProvider/MeterProvider, mirroring the convention
// go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp uses for its
// own span-per-request middleware (translated here to our own chain since
// otelhttp only understands net/http.Handler).
const otelTracerName = "github.com/sablehttp/sable/http"

type otelInstruments struct {
	once      sync.Once
	requests  metric.Int64Counter
	latency   metric.Float64Histogram
}

var otelInst otelInstruments

func (i *otelInstruments) init() {
	i.once.Do(func() {
		meter := otel.Meter(otelTracerName)
		i.requests, _ = meter.Int64Counter("http.server.request_count",
			metric.WithDescription("Number of HTTP requests processed"))
		i.latency, _ = meter.Float64Histogram("http.server.duration",
			metric.WithDescription("HTTP request duration"), metric.WithUnit("ms"))
	})
}

// Observability mounts a span (go.opentelemetry.io/otel/trace), a request
// counter and a latency histogram (otel/metric), and a slog.Logger enriched
// with the request's path, method and (when RequestID ran first) request id
// into the request context. The library never
// imports otel/sdk or any otlp exporter — a host with a configured SDK gets
// real telemetry, a host with none gets the no-op implementations the API
// packages provide for free (see DESIGN.md / SPEC_FULL.md §4.3).
func Observability() Middleware {
	otelInst.init()
	tracer := otel.Tracer(otelTracerName)
	// otelslog.NewLogger binds to the globally configured otel
	// LoggerProvider; with no SDK wired by the host it is the same free
	// no-op as otel's other API defaults (see SPEC_FULL.md §4.3).
	baseLogger := otelslog.NewLogger(otelTracerName)

	return func(next Handler) Handler {
		return func(req *Request, res *Response) {
			start := time.Now()
			ctx, span := tracer.Start(req.Context(), req.Method.String()+" "+req.Path)
			defer span.End()

			reqID := RequestIDFromContext(ctx)
			logger := baseLogger.With("path", req.Path, "method", req.Method.String())
			if reqID != "" {
				logger = logger.With("request_id", reqID)
			}
			ctx = context.WithValue(ctx, ctxKeyLogger, logger)
			*req = *req.WithContext(ctx)

			next(req, res)

			elapsed := time.Since(start)
			span.SetAttributes(
				attribute.Int("http.status_code", int(res.Status)),
				attribute.String("http.path", req.Path),
			)
			if otelInst.requests != nil {
				otelInst.requests.Add(ctx, 1, metric.WithAttributes(
					attribute.Int("http.status_code", int(res.Status)),
				))
			}
			if otelInst.latency != nil {
				otelInst.latency.Record(ctx, float64(elapsed.Microseconds())/1000.0)
			}
			if res.Status >= 500 {
				span.SetStatus(codes.Error, "handler returned 5xx")
			}
			logger.Info("request handled", "status", res.Status, "duration_ms", float64(elapsed.Microseconds())/1000.0)
		}
	}
}

// RateLimiterOptions configures the sliding-window rate limiter (§6's
// external "Rate limiter middleware" collaborator, given a concrete
// implementation per SPEC_FULL.md since domain components should exercise
// real collaborators where possible).
type RateLimiterOptions struct {
	Window   time.Duration
	Max      int
	KeyFunc  func(*Request) string // defaults to remote-address-free constant key when nil
}

// RateLimiter returns a sliding-window-counter middleware grounded on the
// teacher's session/storage.MemorySessionStore map-of-string shape,
// generalized from a flat value store to a per-key timestamp queue. State
// is protected by an internal mutex (§5: middleware owns its own mutable
// state).
func RateLimiter(opts RateLimiterOptions) Middleware {
	keyFunc := opts.KeyFunc
	if keyFunc == nil {
		keyFunc = func(*Request) string { return "*" }
	}

	var mu sync.Mutex
	windows := make(map[string][]time.Time)

	return func(next Handler) Handler {
		return func(req *Request, res *Response) {
			key := keyFunc(req)
			now := time.Now()

			mu.Lock()
			times := windows[key]
			cutoff := now.Add(-opts.Window)
			kept := times[:0]
			for _, t := range times {
				if t.After(cutoff) {
					kept = append(kept, t)
				}
			}
			if len(kept) >= opts.Max {
				windows[key] = kept
				mu.Unlock()
				res.WithStatus(StatusTooManyRequests).WithText("Too Many Requests\n")
				return
			}
			kept = append(kept, now)
			windows[key] = kept
			mu.Unlock()

			next(req, res)
		}
	}
}

// SessionMiddleware adapts the teacher's session/session.Session and
// session/storage.SessionStore packages (kept, not deleted — see
// DESIGN.md) into cookie-backed sessions: it ensures every request carries
// an "SID" cookie (minted via the teacher's own uuid package, distinct from
// github.com/google/uuid's use for request ids), loads the matching session
// from store, attaches it to the request context, and persists it back
// after the handler runs.
func SessionMiddleware(store storage.SessionStore) Middleware {
	return func(next Handler) Handler {
		return func(req *Request, res *Response) {
			sid := ""
			if cookie, err := req.Cookie("SID"); err == nil {
				sid = cookie.Value
			}
			if sid == "" {
				sid = uuid.NewV4().String()
				cookie := &Cookie{
					Name:     "SID",
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   true,
					SameSite: SameSiteLaxMode,
				}
				cookie.SetExpiry(365 * 24 * time.Hour)
				res.AddCookie(cookie)
			}

			sess := session.NewDefaultSession(sid, storage.MemorySessionStoreName, make(map[string]any))
			if store.Has(sid) {
				if attrs, err := store.Get(sid); err == nil {
					sess.Replace(attrs)
				}
			}

			*req = *req.WithContext(context.WithValue(req.Context(), ctxKeySession, sess))

			next(req, res)

			store.Save(sess)
		}
	}
}
