package handlers

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"

	httpctx "propinsight/internal/http/ctx"
	"propinsight/internal/logging"
)

// Healthz reports that the process is serving.
func Healthz() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	}
}

// Readyz reports whether the database answers within a few seconds.
func Readyz(ping func(context.Context) error) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		pctx, cancel := context.WithTimeout(httpctx.Context(ctx), 3*time.Second)
		defer cancel()
		if err := ping(pctx); err != nil {
			logging.Ctx(pctx).Warn().Err(err).Msg("readiness check failed")
			errResponse(ctx, fasthttp.StatusServiceUnavailable, "database unavailable")
			return
		}
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	}
}
