package http

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"io"
	"testing"
)

func TestNegotiatePrefersGzipOverDeflate(t *testing.T) {
	opts := CompressionOptions{Enable: true, EnableGzip: true, EnableDeflate: true}
	if got := Negotiate("deflate, gzip", opts); got != EncodingGzip {
		t.Fatalf("expected gzip, got %v", got)
	}
}

func TestNegotiateFallsBackToDeflate(t *testing.T) {
	opts := CompressionOptions{Enable: true, EnableGzip: true, EnableDeflate: true}
	if got := Negotiate("deflate", opts); got != EncodingDeflate {
		t.Fatalf("expected deflate, got %v", got)
	}
}

func TestNegotiateDisabledReturnsNone(t *testing.T) {
	opts := CompressionOptions{Enable: false, EnableGzip: true}
	if got := Negotiate("gzip", opts); got != EncodingNone {
		t.Fatalf("expected none when disabled, got %v", got)
	}
}

func TestIsCompressibleTypeRejectsImages(t *testing.T) {
	opts := CompressionOptions{Enable: true}
	if IsCompressibleType("image/png", opts) {
		t.Fatalf("did not expect image/png to be compressible")
	}
	if !IsCompressibleType("text/html; charset=utf-8", opts) {
		t.Fatalf("expected text/html to be compressible")
	}
}

func TestGzipCompressRoundTrips(t *testing.T) {
	body := []byte("the quick brown fox jumps over the lazy dog, repeatedly, many times over")
	compressed, err := GzipCompress(body)
	if err != nil {
		t.Fatalf("GzipCompress error: %v", err)
	}
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("gzip.NewReader error: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("round trip mismatch: got %q want %q", got, body)
	}
}

func TestDeflateCompressRoundTrips(t *testing.T) {
	body := []byte("another payload entirely, compressed via the zlib/RFC1950 container")
	compressed, err := DeflateCompress(body)
	if err != nil {
		t.Fatalf("DeflateCompress error: %v", err)
	}
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("zlib.NewReader error: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("round trip mismatch: got %q want %q", got, body)
	}
}
