package http

import (
	"bufio"
	"strconv"
	"time"
)

// imfFixdate is RFC 7231 §7.1.1.1's fixed HTTP-date format, e.g.
// "Sun, 06 Nov 1994 08:49:37 GMT", always rendered in GMT.
const imfFixdate = "Mon, 02 Jan 2006 15:04:05 GMT"

func formatIMFFixdate(t time.Time) string {
	return t.UTC().Format(imfFixdate)
}

func parseIMFFixdate(s string) (time.Time, bool) {
	t, err := time.Parse(imfFixdate, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// serializeResponse writes res to w per §4.5: negotiates compression against
// req's Accept-Encoding, emits the status line, Date/Server headers, the
// user's headers (skipping Content-Length, which the serializer always
// computes itself, and compressing nothing when the caller already set a
// Content-Encoding; when it does compress, Accept-Encoding is appended to
// any existing Vary value unless already listed), the final Content-Length,
// and the body — suppressed for HEAD requests, whose Content-Length still
// reflects the entity size (for a bodiless HEAD response, the Content-Length
// the handler set).
func serializeResponse(w *bufio.Writer, req *Request, res *Response, compression CompressionOptions, serverName string) {
	body := res.Body
	insertedEncoding := ""

	_, userSetEncoding := res.Headers.Get("Content-Encoding")
	if compression.Enable && len(body) > 0 && !userSetEncoding {
		contentType, _ := res.Headers.Get("Content-Type")
		if IsCompressibleType(contentType, compression) && len(body) >= compression.MinSize {
			acceptEncoding, _ := req.Headers.Get("Accept-Encoding")
			switch Negotiate(acceptEncoding, compression) {
			case EncodingGzip:
				if compressed, err := GzipCompress(body); err == nil {
					body = compressed
					insertedEncoding = "gzip"
				}
			case EncodingDeflate:
				if compressed, err := DeflateCompress(body); err == nil {
					body = compressed
					insertedEncoding = "deflate"
				}
			}
		}
	}
	if insertedEncoding != "" {
		res.Headers.Set("Content-Encoding", insertedEncoding)
		res.Headers.AppendVary("Accept-Encoding")
	}

	w.WriteString("HTTP/1.1 ")
	w.WriteString(strconv.Itoa(int(res.Status)))
	w.WriteByte(' ')
	w.WriteString(StatusText(res.Status))
	w.WriteString("\r\n")

	w.WriteString("Date: ")
	w.WriteString(formatIMFFixdate(time.Now()))
	w.WriteString("\r\n")

	w.WriteString("Server: ")
	w.WriteString(serverName)
	w.WriteString("\r\n")

	res.Headers.Each(func(key, value string) {
		if asciiLower(key) == "content-length" {
			return
		}
		w.WriteString(key)
		w.WriteString(": ")
		w.WriteString(value)
		w.WriteString("\r\n")
	})

	contentLength := strconv.Itoa(len(body))
	if req.Method == MethodHead && len(body) == 0 {
		if cl, ok := res.Headers.Get("Content-Length"); ok {
			contentLength = cl
		}
	}
	w.WriteString("Content-Length: ")
	w.WriteString(contentLength)
	w.WriteString("\r\n\r\n")

	if req.Method != MethodHead {
		w.Write(body)
	}
}
