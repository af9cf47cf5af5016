package http

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sablehttp/sable/filesystem"
)

// StaticOptions configures FileServer (§4.7).
type StaticOptions struct {
	FS filesystem.Filesystem // defaults to filesystem.NewLocalFileSystem() when nil

	Root string // directory on disk the mount maps onto
	Mount string // URL prefix served from Root; normalized at construction

	Fallthrough bool // call next instead of a terminal 404/405 when this responder doesn't serve a request

	AutoIndex        bool     // try IndexNames against a directory request
	IndexNames       []string // e.g. []string{"index.html"}
	DirectoryListing bool     // emit an HTML directory listing when no index file is found
	AllowHidden      bool     // allow path components starting with '.'

	ETag         bool
	LastModified bool
	CacheMaxAge  int // seconds; <=0 omits Cache-Control
	Immutable    bool
}

// pathUnderMount reports whether requestPath falls under mount (§4.7 step 2).
func pathUnderMount(requestPath, mount string) bool {
	if mount == "/" {
		return true
	}
	return requestPath == mount || strings.HasPrefix(requestPath, mount+"/")
}

func normalizeMount(mount string) string {
	if mount == "" {
		return "/"
	}
	if !strings.HasPrefix(mount, "/") {
		mount = "/" + mount
	}
	if mount != "/" {
		mount = strings.TrimSuffix(mount, "/")
	}
	return mount
}

// FileServer returns a middleware implementing the static-file algorithm of
// §4.7: path sandboxing under Root, MIME detection, ETag/Last-Modified,
// conditional GET, and single-range GET. Adapted onto the teacher's
// filesystem.Filesystem seam (see DESIGN.md) instead of calling os directly,
// so static reads/stats/listings share one path-safety choke point with any
// other handler that wants the same abstraction.
func FileServer(opts StaticOptions) Middleware {
	if opts.FS == nil {
		opts.FS = filesystem.NewLocalFileSystem()
	}
	mount := normalizeMount(opts.Mount)
	root, _ := opts.FS.GetAbsolutePath(opts.Root)

	return func(next Handler) Handler {
		return func(req *Request, res *Response) {
			if req.Method != MethodGet && req.Method != MethodHead {
				if opts.Fallthrough {
					next(req, res)
					return
				}
				res.WithStatus(StatusMethodNotAllowed).WithHeader("Allow", "GET, HEAD").WithText("Method Not Allowed\n")
				return
			}

			if !pathUnderMount(req.Path, mount) {
				next(req, res)
				return
			}

			sub := strings.TrimPrefix(req.Path, mount)
			sub = strings.TrimPrefix(sub, "/")

			if !pathComponentsSafe(sub, opts.AllowHidden) {
				fallthroughOr404(next, req, res, opts.Fallthrough)
				return
			}

			joined := path.Join(root, sub)
			absJoined, err := opts.FS.GetAbsolutePath(joined)
			if err != nil || !withinRoot(absJoined, root) {
				fallthroughOr404(next, req, res, opts.Fallthrough)
				return
			}

			isDir, err := opts.FS.IsDirectory(absJoined)
			if err != nil {
				fallthroughOr404(next, req, res, opts.Fallthrough)
				return
			}

			servePath := absJoined
			if isDir {
				resolved, ok := resolveDirectory(opts, absJoined)
				if ok {
					servePath = resolved
					isDir = false
				} else if opts.DirectoryListing {
					serveDirectoryListing(opts, req, res, absJoined, req.Path)
					return
				} else {
					fallthroughOr404(next, req, res, opts.Fallthrough)
					return
				}
			}

			exists, err := opts.FS.IsFile(servePath)
			if err != nil || !exists {
				fallthroughOr404(next, req, res, opts.Fallthrough)
				return
			}

			info, err := opts.FS.FileMetaData(servePath)
			if err != nil {
				fallthroughOr404(next, req, res, opts.Fallthrough)
				return
			}

			etag := ""
			if opts.ETag {
				etag = fmt.Sprintf(`W/"%d-%d"`, info.Size(), info.ModTime().UTC().Unix())
			}

			if etag != "" {
				if inm, ok := req.Headers.Get("If-None-Match"); ok && inm == etag {
					writeNotModified(res, etag, opts)
					return
				}
			}
			if opts.LastModified {
				if ims, ok := req.Headers.Get("If-Modified-Since"); ok {
					if t, ok := parseIMFFixdate(ims); ok && !info.ModTime().UTC().After(t) {
						writeNotModified(res, etag, opts)
						return
					}
				}
			}

			body, err := opts.FS.ReadFile(servePath)
			if err != nil {
				res.WithStatus(StatusInternalServerError).WithText("Internal Server Error\n")
				return
			}

			res.WithHeader("Content-Type", ContentTypeForPath(servePath))
			applyCacheHeaders(res, opts, etag, info.ModTime())

			if rangeHeader, ok := req.Headers.Get("Range"); ok {
				serveRange(req, res, body, rangeHeader)
				return
			}

			res.WithStatus(StatusOK)
			if req.Method == MethodHead {
				res.Headers.Set("Content-Length", strconv.Itoa(len(body)))
				res.Ended = true
				return
			}
			res.Send(body)
		}
	}
}

func fallthroughOr404(next Handler, req *Request, res *Response, allowFallthrough bool) {
	if allowFallthrough {
		next(req, res)
		return
	}
	res.WithStatus(StatusNotFound).WithText("Not Found\n")
}

// pathComponentsSafe rejects any component equal to "." or "..", and (when
// allowHidden is false) any component beginning with '.' (§4.7 step 3).
func pathComponentsSafe(sub string, allowHidden bool) bool {
	if sub == "" {
		return true
	}
	for _, part := range strings.Split(sub, "/") {
		if part == "" {
			continue
		}
		if part == "." || part == ".." {
			return false
		}
		if !allowHidden && strings.HasPrefix(part, ".") {
			return false
		}
	}
	return true
}

// withinRoot reports whether candidate is root itself or nested under it,
// comparing normalized absolute paths (§4.7 step 4).
func withinRoot(candidate, root string) bool {
	if candidate == root {
		return true
	}
	return strings.HasPrefix(candidate, strings.TrimSuffix(root, "/")+"/")
}

func resolveDirectory(opts StaticOptions, dir string) (string, bool) {
	if !opts.AutoIndex {
		return "", false
	}
	for _, name := range opts.IndexNames {
		candidate := path.Join(dir, name)
		if ok, err := opts.FS.IsFile(candidate); err == nil && ok {
			return candidate, true
		}
	}
	return "", false
}

func serveDirectoryListing(opts StaticOptions, req *Request, res *Response, dir, urlPath string) {
	entries, err := opts.FS.ListDirectory(dir)
	if err != nil {
		res.WithStatus(StatusInternalServerError).WithText("Internal Server Error\n")
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>Index of ")
	b.WriteString(urlPath)
	b.WriteString("</title></head><body><h1>Index of ")
	b.WriteString(urlPath)
	b.WriteString("</h1><ul>\n")
	if urlPath != "/" {
		b.WriteString(`<li><a href="../">../</a></li>` + "\n")
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		b.WriteString(`<li><a href="`)
		b.WriteString(name)
		b.WriteString(`">`)
		b.WriteString(name)
		b.WriteString("</a></li>\n")
	}
	b.WriteString("</ul></body></html>\n")

	res.WithHeader("Content-Type", "text/html; charset=utf-8")
	if req.Method == MethodHead {
		res.Headers.Set("Content-Length", strconv.Itoa(b.Len()))
		res.WithStatus(StatusOK)
		res.Ended = true
		return
	}
	res.WithStatus(StatusOK).Send([]byte(b.String()))
}

func applyCacheHeaders(res *Response, opts StaticOptions, etag string, modTime time.Time) {
	if opts.CacheMaxAge > 0 {
		cc := fmt.Sprintf("public, max-age=%d", opts.CacheMaxAge)
		if opts.Immutable {
			cc += ", immutable"
		}
		res.Headers.Set("Cache-Control", cc)
	}
	if opts.LastModified {
		res.Headers.Set("Last-Modified", formatIMFFixdate(modTime))
	}
	if etag != "" {
		res.Headers.Set("ETag", etag)
	}
}

func writeNotModified(res *Response, etag string, opts StaticOptions) {
	if etag != "" {
		res.Headers.Set("ETag", etag)
	}
	res.WithStatus(StatusNotModified)
	res.Headers.Set("Content-Length", "0")
	res.Ended = true
}

// parseByteRange parses a single-range "bytes=a-b" / "bytes=a-" / "bytes=-n"
// header value against size, per §4.7 step 8.
func parseByteRange(header string, size int64) (start, end int64, ok bool) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return 0, 0, false
	}
	spec := header[len(prefix):]
	if strings.Contains(spec, ",") {
		return 0, 0, false // multi-range unsupported (Non-goal)
	}
	dash := strings.IndexByte(spec, '-')
	if dash < 0 {
		return 0, 0, false
	}
	startStr, endStr := spec[:dash], spec[dash+1:]

	if startStr == "" {
		// "-n": last n bytes
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, true
	}

	s, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || s < 0 {
		return 0, 0, false
	}
	if endStr == "" {
		return s, size - 1, true
	}
	e, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil || e < s {
		return 0, 0, false
	}
	if e > size-1 {
		e = size - 1
	}
	return s, e, true
}

func serveRange(req *Request, res *Response, body []byte, rangeHeader string) {
	size := int64(len(body))
	start, end, ok := parseByteRange(rangeHeader, size)
	if !ok || size == 0 || start > end || start >= size {
		res.WithStatus(StatusRequestedRangeNotSatisfiable).
			WithHeader("Content-Range", fmt.Sprintf("bytes */%d", size)).
			Send(nil)
		return
	}

	slice := body[start : end+1]
	res.WithStatus(StatusPartialContent).
		WithHeader("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))

	if req.Method == MethodHead {
		res.Headers.Set("Content-Length", strconv.Itoa(len(slice)))
		res.Ended = true
		return
	}
	res.Send(slice)
}
