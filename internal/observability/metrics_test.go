package observability

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danmuck/quasselwire/internal/protocol"
	"github.com/danmuck/quasselwire/internal/protocol/variant"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("inspect-a", "GET", "/health", 200, 12*time.Millisecond)
	before := testutil.ToFloat64(codecOperations.WithLabelValues("decode", "unknown_user_type"))
	RecordCodec("decode", 0, fmt.Errorf("wrapped: %w", variant.UnknownUserTypeError{Name: "X"}))
	after := testutil.ToFloat64(codecOperations.WithLabelValues("decode", "unknown_user_type"))
	if after != before+1 {
		t.Fatalf("expected counter increment, before=%v after=%v", before, after)
	}
}

func TestCodecResultLabels(t *testing.T) {
	cases := map[string]error{
		"ok":               nil,
		"truncated":        protocol.ErrTruncated,
		"unknown_type_tag": variant.UnknownTypeTagError{Tag: 77},
		"unsupported_kind": protocol.ErrUnsupportedVariantKind,
		"too_deep":         protocol.ErrTooDeep,
		"too_large":        protocol.ErrPayloadTooLarge,
		"malformed_string": variant.MalformedStringError{Offset: 1, Reason: "odd byte length"},
		"trailing_bytes":   protocol.ErrTrailingBytes,
		"error":            errors.New("boom"),
	}
	for want, err := range cases {
		if got := CodecResult(err); got != want {
			t.Fatalf("CodecResult(%v)=%s want %s", err, got, want)
		}
	}
}
