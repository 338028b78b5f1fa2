package telemetry

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInit_NilContext(t *testing.T) {
	//nolint:staticcheck // exercising the nil guard
	_, err := Init(nil, Config{})
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestInit_UnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), Config{TraceExporter: "jaeger"})
	assert.ErrorIs(t, err, ErrUnknownExporter)
}

func TestMetricsHandlerServesOtelAndNativeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	prov, err := Init(context.Background(), Config{Registry: reg})
	require.NoError(t, err)
	defer prov.Shutdown(context.Background())

	assert.Same(t, reg, prov.Registry())

	counter, err := otel.Meter("keel.test").Int64Counter("keel_test_events")
	require.NoError(t, err)
	counter.Add(context.Background(), 2)

	native := prometheus.NewCounter(prometheus.CounterOpts{Name: "keel_test_native_total"})
	reg.MustRegister(native)
	native.Inc()

	rec := httptest.NewRecorder()
	prov.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "keel_test_events_total")
	assert.Contains(t, body, "keel_test_native_total 1")
}

func TestStdoutTracesAreWritten(t *testing.T) {
	var buf bytes.Buffer
	prov, err := Init(context.Background(), Config{
		Registry:      prometheus.NewRegistry(),
		TraceExporter: TraceExporterStdout,
		TraceOutput:   &buf,
	})
	require.NoError(t, err)

	_, span := otel.Tracer("keel.test").Start(context.Background(), "unit-of-work")
	span.End()

	require.NoError(t, prov.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "unit-of-work")
}

func TestServeStopsOnCancel(t *testing.T) {
	prov, err := Init(context.Background(), Config{Registry: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer prov.Shutdown(context.Background())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- prov.serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && string(body) == "ok"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
