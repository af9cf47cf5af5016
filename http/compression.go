package http

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"strings"
)

// Encoding is the negotiated content-coding for a response body.
type Encoding uint8

const (
	EncodingNone Encoding = iota
	EncodingGzip
	EncodingDeflate
)

func (e Encoding) String() string {
	switch e {
	case EncodingGzip:
		return "gzip"
	case EncodingDeflate:
		return "deflate"
	default:
		return ""
	}
}

// CompressionOptions configures response compression negotiation (§4.4).
// Compressed against compress/gzip and compress/flate — no example repo in
// the corpus imports a third-party compression library, so the stdlib
// containers (gzip: RFC 1952, flate wrapped as zlib: RFC 1950) are the
// grounded choice; see DESIGN.md.
type CompressionOptions struct {
	Enable            bool
	EnableGzip        bool
	EnableDeflate     bool
	MinSize           int
	CompressibleTypes []string
}

var precompressedTypes = map[string]bool{
	"application/zip":    true,
	"application/gzip":   true,
	"application/x-gzip": true,
}

// Negotiate scans acceptEncoding's tokens case-insensitively and returns the
// best encoding permitted by opts: Gzip beats Deflate when both are
// acceptable and enabled. Quality values are ignored (future work, per
// §4.4).
func Negotiate(acceptEncoding string, opts CompressionOptions) Encoding {
	if !opts.Enable {
		return EncodingNone
	}
	lower := strings.ToLower(acceptEncoding)
	if opts.EnableGzip && hasToken(lower, "gzip") {
		return EncodingGzip
	}
	if opts.EnableDeflate && hasToken(lower, "deflate") {
		return EncodingDeflate
	}
	return EncodingNone
}

func hasToken(acceptEncodingLower, token string) bool {
	for _, part := range strings.Split(acceptEncodingLower, ",") {
		part = strings.TrimSpace(part)
		if semi := strings.IndexByte(part, ';'); semi >= 0 {
			part = part[:semi]
		}
		if strings.TrimSpace(part) == token {
			return true
		}
	}
	return false
}

// IsCompressibleType reports whether contentType is eligible for
// compression under opts (§4.4): enabled, not image/video/audio, not a
// known pre-compressed format, and either no allow-list or a matching
// prefix in it.
func IsCompressibleType(contentType string, opts CompressionOptions) bool {
	if !opts.Enable {
		return false
	}
	base := contentType
	if semi := strings.IndexByte(base, ';'); semi >= 0 {
		base = base[:semi]
	}
	base = strings.TrimSpace(strings.ToLower(base))

	if strings.HasPrefix(base, "image/") || strings.HasPrefix(base, "video/") || strings.HasPrefix(base, "audio/") {
		return false
	}
	if precompressedTypes[base] {
		return false
	}
	if len(opts.CompressibleTypes) == 0 {
		return true
	}
	for _, allowed := range opts.CompressibleTypes {
		if strings.HasPrefix(base, strings.ToLower(allowed)) {
			return true
		}
	}
	return false
}

// GzipCompress wraps body in an RFC 1952 gzip container.
func GzipCompress(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeflateCompress wraps body in an RFC 1950 zlib container (what HTTP's
// "deflate" content-coding actually means, despite the name — RFC 1951 raw
// deflate is not what browsers send/expect here).
func DeflateCompress(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
