package observability

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danmuck/quasselwire/internal/protocol"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quasselwire",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "quasselwire",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	codecOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quasselwire",
			Subsystem: "codec",
			Name:      "operations_total",
			Help:      "Codec encode/decode operations by outcome.",
		},
		[]string{"op", "result"},
	)
	codecBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quasselwire",
			Subsystem: "codec",
			Name:      "bytes_total",
			Help:      "Bytes produced by encoding or consumed by decoding.",
		},
		[]string{"op"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, codecOperations, codecBytes)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordCodec counts one codec call. n is the byte count on success.
func RecordCodec(op string, n int, err error) {
	RegisterMetrics()
	codecOperations.WithLabelValues(op, CodecResult(err)).Inc()
	if err == nil && n > 0 {
		codecBytes.WithLabelValues(op).Add(float64(n))
	}
}

// CodecResult maps a codec error onto a bounded label value.
func CodecResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, protocol.ErrTruncated), errors.Is(err, protocol.ErrShortHeader):
		return "truncated"
	case errors.Is(err, protocol.ErrUnknownTypeTag):
		return "unknown_type_tag"
	case errors.Is(err, protocol.ErrUnknownUserType):
		return "unknown_user_type"
	case errors.Is(err, protocol.ErrUnsupportedVariantKind):
		return "unsupported_kind"
	case errors.Is(err, protocol.ErrTooDeep):
		return "too_deep"
	case errors.Is(err, protocol.ErrMalformedString):
		return "malformed_string"
	case errors.Is(err, protocol.ErrPayloadTooLarge):
		return "too_large"
	case errors.Is(err, protocol.ErrTrailingBytes):
		return "trailing_bytes"
	default:
		return "error"
	}
}
