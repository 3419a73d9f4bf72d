package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestDownloadToFile(t *testing.T) {
	body := []byte("wasmedge artifact payload")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "artifact.bin")
	fetcher := NewFetcher()

	if err := fetcher.DownloadToFile(context.Background(), server.URL, dest); err != nil {
		t.Fatalf("DownloadToFile() error = %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(body) {
		t.Errorf("downloaded content mismatch: %q", got)
	}
}

func TestDownloadToFileStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "missing.bin")
	fetcher := NewFetcher()

	err := fetcher.DownloadToFile(context.Background(), server.URL, dest)
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if statusErr.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", statusErr.Status)
	}

	// A failed download must not leave a file behind that looks successful.
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("destination file should not exist after a 404, stat err = %v", err)
	}
}

func TestDownloadToFileProgress(t *testing.T) {
	body := make([]byte, 100*1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer server.Close()

	fetcher := NewFetcher()

	var last, calls int64
	fetcher.Progress = func(written, total int64) {
		if written < last {
			t.Errorf("progress went backwards: %d after %d", written, last)
		}
		if total > 0 && written > total {
			t.Errorf("progress %d exceeds total %d", written, total)
		}
		last = written
		calls++
	}

	dest := filepath.Join(t.TempDir(), "artifact.bin")
	if err := fetcher.DownloadToFile(context.Background(), server.URL, dest); err != nil {
		t.Fatalf("DownloadToFile() error = %v", err)
	}

	if calls == 0 {
		t.Fatal("progress callback was never invoked")
	}
	if last != int64(len(body)) {
		t.Errorf("final progress = %d, want %d", last, len(body))
	}
}

func TestDownloadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"assets":[{"name":"a.tar.gz","browser_download_url":"https://example.com/a"}]}`))
	}))
	defer server.Close()

	var out struct {
		Assets []struct {
			Name        string `json:"name"`
			DownloadURL string `json:"browser_download_url"`
		} `json:"assets"`
	}

	fetcher := NewFetcher()
	if err := fetcher.DownloadJSON(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("DownloadJSON() error = %v", err)
	}
	if len(out.Assets) != 1 || out.Assets[0].Name != "a.tar.gz" {
		t.Errorf("unexpected decode result: %+v", out)
	}
}

func TestDownloadJSONDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	var out map[string]any
	fetcher := NewFetcher()

	err := fetcher.DownloadJSON(context.Background(), server.URL, &out)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}

	// Status failures must stay distinguishable from decode failures.
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		t.Error("decode failure should not be classified as a status error")
	}
}

func TestDownloadJSONStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	var out map[string]any
	fetcher := NewFetcher()

	err := fetcher.DownloadJSON(context.Background(), server.URL, &out)
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if statusErr.Status != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", statusErr.Status)
	}
}

func TestVerifyChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.bin")
	content := []byte("some artifact bytes")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	sum := sha256.Sum256(content)
	expected := hex.EncodeToString(sum[:])

	fetcher := NewFetcher()

	ok, err := fetcher.VerifyChecksum(path, expected)
	if err != nil {
		t.Fatalf("VerifyChecksum() error = %v", err)
	}
	if !ok {
		t.Error("matching digest should verify")
	}

	// A mismatch is a verified false, not an error.
	ok, err = fetcher.VerifyChecksum(path, "deadbeef")
	if err != nil {
		t.Fatalf("VerifyChecksum() mismatch error = %v", err)
	}
	if ok {
		t.Error("mismatching digest should not verify")
	}

	// The comparison is case-sensitive.
	ok, err = fetcher.VerifyChecksum(path, string([]byte(expected)))
	if err != nil || !ok {
		t.Fatalf("sanity check failed: %v %v", ok, err)
	}
	upper := make([]byte, len(expected))
	for i := range expected {
		c := expected[i]
		if c >= 'a' && c <= 'f' {
			c -= 'a' - 'A'
		}
		upper[i] = c
	}
	if string(upper) != expected {
		ok, err = fetcher.VerifyChecksum(path, string(upper))
		if err != nil {
			t.Fatalf("VerifyChecksum() uppercase error = %v", err)
		}
		if ok {
			t.Error("hex comparison should be case-sensitive")
		}
	}

	// Unreadable files are errors, not mismatches.
	if _, err := fetcher.VerifyChecksum(filepath.Join(t.TempDir(), "nope"), expected); err == nil {
		t.Error("missing file should be an error")
	}
}
