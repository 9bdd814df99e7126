package observability_test

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probelab/swapnest/internal/observability"
)

// loopbackAddr asks the kernel for a free port so parallel tests never
// collide.
const loopbackAddr = "127.0.0.1:0"

func TestDiagnosticsServer_Healthz(t *testing.T) {
	t.Parallel()

	srv, err := observability.NewDiagnosticsServer(loopbackAddr, nil)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, srv.Close()) })

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ok")
}

func TestDiagnosticsServer_MetricsWhenHandlerGiven(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	srv, err := observability.NewDiagnosticsServer(loopbackAddr, handler)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, srv.Close()) })

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "# metrics")
}

func TestDiagnosticsServer_MetricsAbsentWithoutHandler(t *testing.T) {
	t.Parallel()

	srv, err := observability.NewDiagnosticsServer(loopbackAddr, nil)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, srv.Close()) })

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)

	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDiagnosticsServer_BadAddr(t *testing.T) {
	t.Parallel()

	_, err := observability.NewDiagnosticsServer("256.256.256.256:0", nil)
	require.Error(t, err)
}
