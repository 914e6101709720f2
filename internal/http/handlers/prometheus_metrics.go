package handlers

import (
	"bytes"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/valyala/fasthttp"

	dbpkg "propinsight/internal/db"
	"propinsight/internal/insight"
)

var (
	requestsTotal          *prometheus.CounterVec
	requestDurationBuckets *prometheus.HistogramVec
	metricsOnce            sync.Once
)

// InitPrometheusMetrics registers the HTTP, query and AI client
// collectors with the default registry. Repeated calls are no-ops.
func InitPrometheusMetrics() {
	metricsOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "propinsight",
				Name:      "http_requests_total",
				Help:      "Total number of served API requests.",
			},
			[]string{"route", "method", "status"},
		)
		requestDurationBuckets = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "propinsight",
				Name:      "http_request_duration_seconds",
				Help:      "Histogram of API request durations in seconds.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"route", "method"},
		)
		prometheus.MustRegister(requestsTotal, requestDurationBuckets)
		prometheus.MustRegister(dbpkg.Collectors()...)
		prometheus.MustRegister(insight.Collectors()...)
	})
}

func observeRequest(route, method string, status int, elapsed time.Duration) {
	if requestsTotal == nil {
		return
	}
	requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	requestDurationBuckets.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// PrometheusMetrics serves GET /metrics in the text exposition format.
// ?prefix= keeps only the metric families whose name starts with it.
func PrometheusMetrics(gatherer prometheus.Gatherer) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		metricFamilies, err := gatherer.Gather()
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to gather metrics")
			return
		}

		prefix := arg(ctx, "prefix")
		filtered := make([]*dto.MetricFamily, 0, len(metricFamilies))
		for _, mf := range metricFamilies {
			if prefix == "" || strings.HasPrefix(mf.GetName(), prefix) {
				filtered = append(filtered, mf)
			}
		}

		var buf bytes.Buffer
		encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
		for _, mf := range filtered {
			if err := encoder.Encode(mf); err != nil {
				errResponse(ctx, fasthttp.StatusInternalServerError, "failed to encode metrics")
				return
			}
		}

		ctx.SetContentType(string(expfmt.FmtText))
		ctx.Response.Header.Set("Cache-Control", "no-store")
		ctx.SetBody(buf.Bytes())
	}
}
