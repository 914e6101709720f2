package middleware

import (
	"strings"

	"github.com/valyala/fasthttp"
)

// CORS allows browser calls from the configured origins. "*" allows any
// origin but only explicitly listed origins may send credentials. Preflight requests are answered with 204 and never reach the
// router.
func CORS(allowed []string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	origins := make(map[string]bool, len(allowed))
	anyOrigin := false
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			anyOrigin = true
		}
		if o != "" {
			origins[o] = true
		}
	}

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			origin := string(ctx.Request.Header.Peek("Origin"))
			if origin != "" && (anyOrigin || origins[origin]) {
				h := &ctx.Response.Header
				h.Set("Access-Control-Allow-Origin", origin)
				if origins[origin] {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				h.Set("Access-Control-Expose-Headers", requestIDHeader)
				h.Add("Vary", "Origin")
			}

			if ctx.IsOptions() {
				h := &ctx.Response.Header
				h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
				h.Set("Access-Control-Max-Age", "600")
				ctx.SetStatusCode(fasthttp.StatusNoContent)
				return
			}
			next(ctx)
		}
	}
}
