package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const testScrapeCounter = "test.scrape"

func TestBuildPrometheusReader_ServesScrapeEndpoint(t *testing.T) {
	t.Parallel()

	reader, handler, err := buildPrometheusReader()
	require.NoError(t, err)
	require.NotNil(t, reader)
	require.NotNil(t, handler)

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() {
		require.NoError(t, mp.Shutdown(context.Background()))
	})

	counter, err := mp.Meter("test").Int64Counter(testScrapeCounter)
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_scrape")
}

func TestBuildPrometheusReader_IndependentRegistries(t *testing.T) {
	t.Parallel()

	readerA, _, err := buildPrometheusReader()
	require.NoError(t, err)

	readerB, _, err := buildPrometheusReader()
	require.NoError(t, err)

	assert.NotSame(t, readerA, readerB)
}
