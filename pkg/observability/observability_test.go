package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/lazperf/pkg/metrics"
)

func TestSpansAreExported(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	shutdown, err := InitTracing(TracingConfig{
		ServiceName:  "lazperf-test",
		SamplingRate: 1,
		Exporter:     exporter,
	})
	require.NoError(t, err)
	defer shutdown(context.Background())

	_, span := StartSpan(context.Background(), "compress")
	span.SetAttribute("points", 10)
	span.Finish(nil)

	_, failed := StartSpan(context.Background(), "decompress")
	failed.Finish(errors.New("boom"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "compress", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
}

func TestMetricsServer(t *testing.T) {
	metrics.PointsProcessed.WithLabelValues(metrics.OpCompress).Add(0)

	s, err := StartMetricsServer("127.0.0.1:0", zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Shutdown(context.Background())

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "lazperf_points_total"))
}
