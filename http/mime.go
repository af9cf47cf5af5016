package http

import "strings"

// mimeTypes is a small hand-maintained extension-to-content-type table
// (§4.1), matching the teacher's style of hand-rolled lookup tables (see
// status.go's statusMessages) rather than reaching for mime.TypeByExtension
// or a third-party sniffer — no example in the corpus imports one.
var mimeTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".htm":  "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".mjs":  "text/javascript; charset=utf-8",
	".json": "application/json",
	".xml":  "application/xml",
	".txt":  "text/plain; charset=utf-8",
	".csv":  "text/csv; charset=utf-8",
	".md":   "text/markdown; charset=utf-8",

	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".bmp":  "image/bmp",

	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",

	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",

	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".eot":   "application/vnd.ms-fontobject",

	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".wasm": "application/wasm",
}

const defaultMimeType = "application/octet-stream"

// ContentTypeForPath finds the last '.' after the last '/' in path and maps
// the lowercased extension to a content type; unknown or absent extensions
// return the default octet-stream type (§4.1).
func ContentTypeForPath(path string) string {
	slash := strings.LastIndexByte(path, '/')
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 || dot < slash {
		return defaultMimeType
	}
	if ct, ok := mimeTypes[strings.ToLower(path[dot:])]; ok {
		return ct
	}
	return defaultMimeType
}
