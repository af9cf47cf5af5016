package http

import "strconv"

// CORSOptions configures the CORS middleware (§4.6).
type CORSOptions struct {
	AllowOrigin         string
	ReflectOrigin       bool
	AllowMethods        string
	AllowHeaders        string
	ExposeHeaders       string
	AllowCredentials    bool
	MaxAgeSeconds       int
	AllowPrivateNetwork bool
	PreflightContinue   bool
}

// CORS returns a middleware implementing the preflight/simple-request
// policy of §4.6 exactly.
func CORS(opts CORSOptions) Middleware {
	return func(next Handler) Handler {
		return func(req *Request, res *Response) {
			origin, hasOrigin := req.Headers.Get("Origin")
			if !hasOrigin {
				next(req, res)
				return
			}

			allowValue, allowed := corsAllowOrigin(origin, opts, res)
			if allowed {
				res.Headers.Set("Access-Control-Allow-Origin", allowValue)
				if opts.AllowCredentials {
					res.Headers.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			reqMethod, isPreflight := req.Headers.Get("Access-Control-Request-Method")
			if req.Method == MethodOptions && isPreflight {
				corsPreflight(req, res, opts, allowed, reqMethod, next)
				return
			}

			if opts.ExposeHeaders != "" {
				res.Headers.Set("Access-Control-Expose-Headers", opts.ExposeHeaders)
			}
			next(req, res)
		}
	}
}

// corsAllowOrigin computes the Access-Control-Allow-Origin value per §4.6
// step 2, appending Origin to Vary whenever the origin is reflected.
func corsAllowOrigin(origin string, opts CORSOptions, res *Response) (string, bool) {
	if opts.AllowOrigin == "*" && !opts.AllowCredentials {
		return "*", true
	}
	if opts.AllowOrigin == "*" && opts.AllowCredentials {
		if opts.ReflectOrigin {
			res.Headers.AppendVary("Origin")
			return origin, true
		}
		return "", false
	}
	if opts.ReflectOrigin {
		res.Headers.AppendVary("Origin")
		return origin, true
	}
	return opts.AllowOrigin, true
}

func corsPreflight(req *Request, res *Response, opts CORSOptions, allowed bool, reqMethod string, next Handler) {
	allowMethods := opts.AllowMethods
	if allowMethods == "" {
		allowMethods = reqMethod
	}
	res.Headers.Set("Access-Control-Allow-Methods", allowMethods)

	allowHeaders := opts.AllowHeaders
	if allowHeaders == "" {
		if reqHeaders, ok := req.Headers.Get("Access-Control-Request-Headers"); ok {
			allowHeaders = reqHeaders
			res.Headers.AppendVary("Access-Control-Request-Headers")
		}
	}
	if allowHeaders != "" {
		res.Headers.Set("Access-Control-Allow-Headers", allowHeaders)
	}

	if opts.AllowPrivateNetwork && req.Headers.Has("Access-Control-Request-Private-Network") {
		res.Headers.Set("Access-Control-Allow-Private-Network", "true")
	}
	if opts.MaxAgeSeconds > 0 {
		res.Headers.Set("Access-Control-Max-Age", strconv.Itoa(opts.MaxAgeSeconds))
	}

	if !allowed && !opts.PreflightContinue {
		res.WithStatus(StatusNoContent).Send(nil)
		return
	}
	if !opts.PreflightContinue {
		res.WithStatus(StatusNoContent).Send(nil)
		return
	}
	next(req, res)
}
