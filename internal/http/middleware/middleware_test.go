package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	httpctx "propinsight/internal/http/ctx"
)

func newCtx(method, uri string, headers map[string]string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		reuse  bool
	}{
		{name: "generated", header: "", reuse: false},
		{name: "client id kept", header: "trace-42.a_b", reuse: true},
		{name: "unsafe id replaced", header: "bad id\n", reuse: false},
		{name: "long id replaced", header: strings.Repeat("a", 200), reuse: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newCtx("GET", "/api/areas", map[string]string{"X-Request-ID": tt.header})
			var seen string
			RequestID(func(ctx *fasthttp.RequestCtx) {
				seen, _ = httpctx.RequestIDFromCtx(ctx)
			})(ctx)

			got := string(ctx.Response.Header.Peek("X-Request-ID"))
			assert.Equal(t, seen, got)
			if tt.reuse {
				assert.Equal(t, tt.header, got)
			} else {
				assert.Len(t, got, 36)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	mw := CORS([]string{"http://localhost:3000/"})
	called := false
	next := func(ctx *fasthttp.RequestCtx) { called = true }

	t.Run("allowed origin", func(t *testing.T) {
		called = false
		ctx := newCtx("GET", "/api/areas", map[string]string{"Origin": "http://localhost:3000"})
		mw(next)(ctx)
		assert.True(t, called)
		assert.Equal(t, "http://localhost:3000", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
		assert.Equal(t, "true", string(ctx.Response.Header.Peek("Access-Control-Allow-Credentials")))
	})

	t.Run("other origin", func(t *testing.T) {
		called = false
		ctx := newCtx("GET", "/api/areas", map[string]string{"Origin": "http://evil.test"})
		mw(next)(ctx)
		assert.True(t, called)
		assert.Empty(t, ctx.Response.Header.Peek("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		called = false
		ctx := newCtx("OPTIONS", "/api/areas", map[string]string{"Origin": "http://localhost:3000"})
		mw(next)(ctx)
		assert.False(t, called)
		assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())
		assert.Contains(t, string(ctx.Response.Header.Peek("Access-Control-Allow-Methods")), "GET")
	})
}

func TestCORSWildcard(t *testing.T) {
	next := func(ctx *fasthttp.RequestCtx) {}

	t.Run("any origin without credentials", func(t *testing.T) {
		ctx := newCtx("GET", "/api/areas", map[string]string{"Origin": "http://anywhere.test"})
		CORS([]string{"*"})(next)(ctx)
		assert.Equal(t, "http://anywhere.test", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
		assert.Empty(t, ctx.Response.Header.Peek("Access-Control-Allow-Credentials"))
	})

	t.Run("listed origin keeps credentials", func(t *testing.T) {
		ctx := newCtx("GET", "/api/areas", map[string]string{"Origin": "http://localhost:3000"})
		CORS([]string{"*", "http://localhost:3000"})(next)(ctx)
		assert.Equal(t, "true", string(ctx.Response.Header.Peek("Access-Control-Allow-Credentials")))
	})
}
