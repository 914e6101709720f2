package ctx

import (
	"context"

	"github.com/valyala/fasthttp"

	"propinsight/internal/logging"
)

const RequestIDKey = "requestID"

func SetRequestID(ctx *fasthttp.RequestCtx, id string) {
	ctx.SetUserValue(RequestIDKey, id)
}

func RequestIDFromCtx(ctx *fasthttp.RequestCtx) (string, bool) {
	v := ctx.UserValue(RequestIDKey)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Context returns a context.Context for work done on behalf of the
// request. It is canceled when the server shuts down and carries the
// request id for logging.
func Context(ctx *fasthttp.RequestCtx) context.Context {
	var parent context.Context = ctx
	if id, ok := RequestIDFromCtx(ctx); ok {
		return logging.ContextWithRequestID(parent, id)
	}
	return parent
}
