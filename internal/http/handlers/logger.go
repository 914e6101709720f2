package handlers

import (
	"time"

	"github.com/fasthttp/router"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	httpctx "propinsight/internal/http/ctx"
	"propinsight/internal/logging"
)

// RequestLogger logs one line per request and records the request
// metrics. Routes are labelled by their pattern when the router saves
// the matched path.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		elapsed := time.Since(start)

		status := ctx.Response.StatusCode()
		method := string(ctx.Method())
		observeRequest(routeLabel(ctx), method, status, elapsed)

		level := zerolog.InfoLevel
		if status >= fasthttp.StatusInternalServerError {
			level = zerolog.ErrorLevel
		}
		logging.Ctx(httpctx.Context(ctx)).WithLevel(level).
			Str("method", method).
			Str("path", string(ctx.Path())).
			Int("status", status).
			Dur("duration", elapsed).
			Str("remote_ip", ctx.RemoteIP().String()).
			Msg("request")
	}
}

func routeLabel(ctx *fasthttp.RequestCtx) string {
	if r, ok := ctx.UserValue(router.MatchedRoutePathParam).(string); ok && r != "" {
		return r
	}
	return "unmatched"
}
