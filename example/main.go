package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/sablehttp/sable/http"
	"github.com/sablehttp/sable/session/storage"
)

func init() {
	os.Setenv("OTEL_SERVICE_NAME", "sable-example")
	os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment=development,service.version=0.0.0")
	os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://127.0.0.1:4317")
	os.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
}

func main() {
	server := http.NewServer(http.Options{
		Name:            "sable-example",
		HeaderTimeoutMs: 10_000,
		BodyTimeoutMs:   30_000,
		IdleTimeoutMs:   120_000,
		Compression: http.CompressionOptions{
			Enable:        true,
			EnableGzip:    true,
			EnableDeflate: true,
			MinSize:       256,
		},
	})

	server.Use(
		http.RequestID(),
		http.Observability(),
		http.Recover(),
	)

	server.Use(http.CORS(http.CORSOptions{
		AllowOrigin:   "*",
		AllowMethods:  "GET, POST",
		MaxAgeSeconds: 600,
	}))

	server.Use(http.RateLimiter(http.RateLimiterOptions{
		Window: time.Minute,
		Max:    120,
	}))

	sessions := storage.NewMemorySessionStore()
	server.Use(http.SessionMiddleware(sessions))

	server.GET("/", func(req *http.Request, res *http.Response) {
		res.WithText("sable example server")
	})

	server.GET("/users/:id", func(req *http.Request, res *http.Response) {
		res.WithJSON(map[string]string{"id": req.Params["id"]})
	})

	server.GET("/files/*path", func(req *http.Request, res *http.Response) {
		res.WithJSON(map[string]string{"remainder": req.Params["path"]})
	})

	v1 := server.Group("/v1")
	v1.Use(func(next http.Handler) http.Handler {
		return func(req *http.Request, res *http.Response) {
			log.Printf("v1 request: %s %s", req.Method, req.Path)
			next(req, res)
		}
	})
	v1.GET("/ping", func(req *http.Request, res *http.Response) {
		res.WithJSON(map[string]bool{"ok": true})
	})

	server.Use(http.FileServer(http.StaticOptions{
		Root:         "./public",
		Mount:        "/static",
		Fallthrough:  true,
		AutoIndex:    true,
		IndexNames:   []string{"index.html"},
		ETag:         true,
		LastModified: true,
		CacheMaxAge:  int((time.Hour).Seconds()),
	}))

	server.GET("/bulk", func(req *http.Request, res *http.Response) {
		res.WithHeader("Content-Type", "text/plain; charset=utf-8")
		body := make([]byte, 4096)
		for i := range body {
			body[i] = 'a'
		}
		res.Send(body)
	})

	port := 8080
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}

	if !server.Run("0.0.0.0", port) {
		log.Fatal("sable: failed to start")
	}
}
