package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOtlpConnConfig(t *testing.T) {
	require.False(t, OtlpConnConfig{}.configured())

	onlyHttp := OtlpConnConfig{HttpEndpoint: "http://localhost:4318"}
	require.True(t, onlyHttp.configured())
	require.Equal(t, "http", onlyHttp.transport())
	require.Equal(t, "http://localhost:4318", onlyHttp.endpoint())

	both := OtlpConnConfig{
		GrpcEndpoint: "http://localhost:4317",
		HttpEndpoint: "http://localhost:4318",
	}
	require.Equal(t, "grpc", both.transport())
	require.Equal(t, "http://localhost:4317", both.endpoint())
}

func TestSetupNothingConfigured(t *testing.T) {
	tel, err := Setup(context.Background(), "peoplecards", Config{})
	require.NoError(t, err)
	require.False(t, tel.Enabled())
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestSetupHttp(t *testing.T) {
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(collector.Close)

	tel, err := Setup(context.Background(), "peoplecards", Config{
		Otlp: OtlpConfig{
			Traces:  OtlpConnConfig{HttpEndpoint: collector.URL + "/v1/traces"},
			Metrics: OtlpConnConfig{HttpEndpoint: collector.URL + "/v1/metrics"},
		},
	})
	require.NoError(t, err)
	require.True(t, tel.Enabled())
	require.NotNil(t, tel.TracerProvider)
	require.NotNil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestRecordPerfStats(t *testing.T) {
	stats := RecordPerfStats(context.Background())
	require.Positive(t, stats.Goroutines)
	require.Positive(t, stats.LiveObjects)
}
