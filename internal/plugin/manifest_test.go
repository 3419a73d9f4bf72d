package plugin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmedge/wasmedgeup/internal/fetch"
	"github.com/wasmedge/wasmedgeup/internal/platform"
	"github.com/wasmedge/wasmedgeup/internal/releases"
)

func newManifestManager(t *testing.T, handler http.HandlerFunc) *Manager {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	fetcher := fetch.NewFetcher()
	rels := releases.NewClient(fetcher.HTTPClient(), "", "")
	rels.SetRawHost(server.URL)

	return NewManager(testRuntimeVersion, testPlatform, platform.SchemeClassic, t.TempDir(), fetcher, rels)
}

func TestFetchVersionManifest(t *testing.T) {
	manager := newManifestManager(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/WasmEdge/WasmEdge/master/plugins/wasi_nn-ggml/version.json", r.URL.Path)
		w.Write([]byte(`{"maintained": ["0.14.1", "0.14.0"], "deprecated": ["0.13.5"]}`))
	})

	vm, err := manager.FetchVersionManifest(context.Background(), "wasi_nn-ggml")
	require.NoError(t, err)
	require.Equal(t, []string{"0.14.1", "0.14.0"}, vm.Maintained)
	require.Equal(t, []string{"0.13.5"}, vm.Deprecated)
}

func TestFetchVersionManifestMissing(t *testing.T) {
	manager := newManifestManager(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := manager.FetchVersionManifest(context.Background(), "wasi_logging")
	require.Error(t, err)
	require.Contains(t, err.Error(), "wasi_logging")
}

func TestFetchManifest(t *testing.T) {
	manager := newManifestManager(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/WasmEdge/WasmEdge/master/plugins/wasi_crypto/manifest.json", r.URL.Path)
		w.Write([]byte(`{"0.14.1": {"0.14.1": {"deps": [], "platform": ["ubuntu20.04_x86_64", "manylinux2014_aarch64"]}}}`))
	})

	mf, err := manager.FetchManifest(context.Background(), "wasi_crypto")
	require.NoError(t, err)
	require.Equal(t, []string{"ubuntu20.04_x86_64", "manylinux2014_aarch64"}, mf["0.14.1"]["0.14.1"].Platform)
}
