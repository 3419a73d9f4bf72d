package plugin

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-github/v50/github"
	"github.com/migueleliasweb/go-github-mock/src/mock"
	"github.com/stretchr/testify/require"

	"github.com/wasmedge/wasmedgeup/internal/fetch"
	"github.com/wasmedge/wasmedgeup/internal/platform"
	"github.com/wasmedge/wasmedgeup/internal/releases"
)

const testRuntimeVersion = "0.14.1"

var testPlatform = platform.Platform{OS: platform.LinuxUbuntu, Arch: platform.X8664}

func pluginArchive(t *testing.T, libNames ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	writeEntry := func(name, body string) {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(body)),
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}

	for _, lib := range libNames {
		writeEntry(lib, "shared library bytes")
	}
	writeEntry("README.md", "docs, not a library")
	writeEntry("manifest.json", "{}")

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestScanAssets(t *testing.T) {
	token := platform.SchemeClassic.Token(testPlatform)
	assets := []string{
		"WasmEdge-0.14.1-ubuntu20.04_x86_64.tar.gz", // runtime artifact, not a plugin
		"WasmEdge-plugin-wasi_crypto-0.14.1-ubuntu20.04_x86_64.tar.gz",
		"WasmEdge-plugin-wasi_crypto-0.14.1-darwin_arm64.tar.gz", // duplicate name, first wins
		"WasmEdge-plugin-wasi_nn-ggml-0.14.1-darwin_arm64.tar.gz",
		"WasmEdge-plugin-x.tar.gz", // too few segments, skipped
		"source-code.zip",
	}

	plugins := scanAssets(assets, testRuntimeVersion, token)
	require.Len(t, plugins, 2)

	require.Equal(t, "wasi_crypto", plugins[0].Name)
	require.Equal(t, testRuntimeVersion, plugins[0].Version)
	require.True(t, plugins[0].Compatible)

	require.Equal(t, "wasi_nn-ggml", plugins[1].Name)
	require.False(t, plugins[1].Compatible)
}

func TestList(t *testing.T) {
	mockedHTTPClient := mock.NewMockedHTTPClient(
		mock.WithRequestMatch(
			mock.GetReposReleasesTagsByOwnerByRepoByTag,
			&github.RepositoryRelease{
				TagName: github.String(testRuntimeVersion),
				Assets: []*github.ReleaseAsset{
					{Name: github.String("WasmEdge-plugin-wasi_crypto-0.14.1-ubuntu20.04_x86_64.tar.gz")},
					{Name: github.String("WasmEdge-plugin-wasmedge_image-0.14.1-darwin_arm64.tar.gz")},
					{Name: github.String("WasmEdge-0.14.1-ubuntu20.04_x86_64.tar.gz")},
				},
			},
		),
	)

	rels := releases.NewClient(mockedHTTPClient, "", "")
	manager := NewManager(testRuntimeVersion, testPlatform, platform.SchemeClassic, t.TempDir(), fetch.NewFetcher(), rels)

	plugins, err := manager.List(context.Background())
	require.NoError(t, err)
	require.Len(t, plugins, 2)
	require.True(t, plugins[0].Compatible)
	require.False(t, plugins[1].Compatible)
}

// newDownloadServer returns a manager whose downloads hit a local server, plus
// the list of request paths the server saw.
func newDownloadServer(t *testing.T, handler http.HandlerFunc) (*Manager, string, *[]string) {
	t.Helper()

	var requested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	pluginDir := filepath.Join(t.TempDir(), "plugin")
	fetcher := fetch.NewFetcher()
	rels := releases.NewClient(fetcher.HTTPClient(), "", "")
	rels.SetDownloadHost(server.URL)

	manager := NewManager(testRuntimeVersion, testPlatform, platform.SchemeClassic, pluginDir, fetcher, rels)
	return manager, pluginDir, &requested
}

func TestInstallPrimaryURL(t *testing.T) {
	archive := pluginArchive(t, "libwasmedgePluginWasiNN.so")
	manager, pluginDir, requested := newDownloadServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	})

	require.NoError(t, manager.Install(context.Background(), "wasi-nn-ggml", ""))

	require.Len(t, *requested, 1)
	require.Equal(t,
		"/WasmEdge/WasmEdge/releases/download/0.14.1/WasmEdge-plugin-wasi_nn-ggml-0.14.1-ubuntu20.04_x86_64.tar.gz",
		(*requested)[0])

	require.FileExists(t, filepath.Join(pluginDir, "libwasmedgePluginWasiNN.so"))
	require.NoFileExists(t, filepath.Join(pluginDir, "README.md"))
	require.NoFileExists(t, filepath.Join(pluginDir, "manifest.json"))
}

func TestInstallFallsBackToAlternateURL(t *testing.T) {
	archive := pluginArchive(t, "libwasmedgePluginWasiCrypto.so")
	alternate := "/WasmEdge/WasmEdge/releases/download/0.14.1/WasmEdge-plugin-wasi_crypto-ubuntu20.04_x86_64.tar.gz"

	manager, pluginDir, requested := newDownloadServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != alternate {
			http.NotFound(w, r)
			return
		}
		w.Write(archive)
	})

	require.NoError(t, manager.Install(context.Background(), "wasi-crypto", ""))

	require.Len(t, *requested, 2)
	require.Equal(t,
		"/WasmEdge/WasmEdge/releases/download/0.14.1/WasmEdge-plugin-wasi_crypto-0.14.1-ubuntu20.04_x86_64.tar.gz",
		(*requested)[0])
	require.Equal(t, alternate, (*requested)[1])

	require.FileExists(t, filepath.Join(pluginDir, "libwasmedgePluginWasiCrypto.so"))
}

func TestInstallNotFoundAfterBothAttempts(t *testing.T) {
	manager, _, requested := newDownloadServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	err := manager.Install(context.Background(), "wasi-nn-ggml", "")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "wasi-nn-ggml", notFound.Name)
	require.Contains(t, err.Error(), "wasi-nn-ggml")
	require.Contains(t, err.Error(), "releases/tag/"+testRuntimeVersion)

	// Exactly one alternate attempt, never more.
	require.Len(t, *requested, 2)
}

func newRemovalManager(t *testing.T, files ...string) (*Manager, string) {
	t.Helper()

	pluginDir := t.TempDir()
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(pluginDir, name), []byte("lib"), 0755))
	}
	return NewManager(testRuntimeVersion, testPlatform, platform.SchemeClassic, pluginDir, nil, nil), pluginDir
}

func TestRemove(t *testing.T) {
	manager, pluginDir := newRemovalManager(t,
		"libwasmedgePluginWasiNN.so",
		"libwasmedgePluginWasiCrypto.so",
	)

	require.NoError(t, manager.Remove("wasi-nn-ggml", ""))

	require.NoFileExists(t, filepath.Join(pluginDir, "libwasmedgePluginWasiNN.so"))
	require.FileExists(t, filepath.Join(pluginDir, "libwasmedgePluginWasiCrypto.so"))
}

func TestRemoveNotInstalled(t *testing.T) {
	manager, _ := newRemovalManager(t, "libwasmedgePluginWasiCrypto.so")

	err := manager.Remove("wasmedge-image", "")
	require.ErrorIs(t, err, ErrNotInstalled)
	require.Contains(t, err.Error(), "wasmedge-image")
}

func TestRemoveMissingPluginDir(t *testing.T) {
	manager := NewManager(testRuntimeVersion, testPlatform, platform.SchemeClassic,
		filepath.Join(t.TempDir(), "never-created"), nil, nil)

	err := manager.Remove("wasi-crypto", "")
	require.ErrorIs(t, err, ErrNotInstalled)
}

func TestRemoveSubstringMatcher(t *testing.T) {
	manager, pluginDir := newRemovalManager(t,
		"libwasmedgePluginWasiNN-0.14.1.so",
		"libwasmedgePluginWasiCrypto.so",
	)
	manager.SetMatcher(MatchSubstring)

	require.NoError(t, manager.Remove("wasi-nn-ggml", ""))
	require.NoFileExists(t, filepath.Join(pluginDir, "libwasmedgePluginWasiNN-0.14.1.so"))
}

func TestDownloadURLs(t *testing.T) {
	fetcher := fetch.NewFetcher()
	rels := releases.NewClient(fetcher.HTTPClient(), "", "")
	manager := NewManager(testRuntimeVersion, testPlatform, platform.SchemeClassic, t.TempDir(), fetcher, rels)

	urls := manager.downloadURLs("wasi-nn-ggml")
	require.Equal(t, []string{
		fmt.Sprintf("https://github.com/WasmEdge/WasmEdge/releases/download/%s/WasmEdge-plugin-wasi_nn-ggml-%s-ubuntu20.04_x86_64.tar.gz", testRuntimeVersion, testRuntimeVersion),
		fmt.Sprintf("https://github.com/WasmEdge/WasmEdge/releases/download/%s/WasmEdge-plugin-wasi_nn-ggml-ubuntu20.04_x86_64.tar.gz", testRuntimeVersion),
	}, urls)
}
