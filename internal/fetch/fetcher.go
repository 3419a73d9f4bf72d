package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/wasmedge/wasmedgeup/pkg/logger"
)

const (
	userAgent       = "wasmedgeup"
	downloadTimeout = 300 * time.Second
	copyBufferSize  = 32 * 1024
)

// HTTPStatusError reports a non-2xx response to a GET.
type HTTPStatusError struct {
	Status int
	URL    string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Status, e.URL)
}

// DecodeError reports a response body that could not be deserialized. It is
// distinct from network and status errors so callers can tell a reachable but
// malformed endpoint apart from a failed request.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ProgressFunc receives download progress. written is monotonically
// increasing and clamped to total when the content length is known; total is
// -1 when the server did not report one.
type ProgressFunc func(written, total int64)

// Fetcher performs all network I/O: artifact downloads with streaming SHA-256
// support and typed JSON fetches for API calls.
type Fetcher struct {
	client   *retryablehttp.Client
	log      *logger.Logger
	Progress ProgressFunc
}

// NewFetcher creates a fetcher. Retries are disabled: transient failures are
// not classified anywhere in the pipeline, so every request is a single
// attempt.
func NewFetcher() *Fetcher {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = 0
	client.HTTPClient.Timeout = downloadTimeout

	f := &Fetcher{
		client: client,
		log:    logger.NewLogger("fetch"),
	}
	f.Progress = f.logProgress()
	return f
}

// HTTPClient exposes the underlying standard client, used to construct the
// GitHub API client on top of the same transport settings.
func (f *Fetcher) HTTPClient() *http.Client {
	return f.client.StandardClient()
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	return resp, nil
}

// DownloadToFile streams the body of url into dest. Any non-2xx status is a
// hard failure and the destination file is not created. On mid-stream errors
// a partial file may be left behind; callers own its cleanup.
func (f *Fetcher) DownloadToFile(ctx context.Context, url, dest string) error {
	f.log.WithFields(logger.Fields{"url": url, "dest": dest}).Debug("Downloading file")

	resp, err := f.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPStatusError{Status: resp.StatusCode, URL: url}
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	total := resp.ContentLength
	if err := f.copyWithProgress(ctx, out, resp.Body, total); err != nil {
		return fmt.Errorf("failed to save %s: %w", dest, err)
	}

	if err := out.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", dest, err)
	}

	f.log.WithField("dest", dest).Debug("Download completed")
	return nil
}

// copyWithProgress copies src to dst in fixed-size chunks, checking for
// cancellation before each read and reporting clamped progress.
func (f *Fetcher) copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64) error {
	buf := make([]byte, copyBufferSize)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		nr, readErr := src.Read(buf)
		if nr > 0 {
			nw, writeErr := dst.Write(buf[:nr])
			if writeErr != nil {
				return writeErr
			}
			if nw != nr {
				return io.ErrShortWrite
			}

			written += int64(nw)
			reported := written
			if total > 0 && reported > total {
				// Clamp in case the server streams more than it announced.
				reported = total
			}
			if f.Progress != nil {
				f.Progress(reported, total)
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return readErr
		}
	}
}

// DownloadJSON fetches url and deserializes the JSON body into v.
func (f *Fetcher) DownloadJSON(ctx context.Context, url string, v any) error {
	f.log.WithField("url", url).Debug("Fetching JSON")

	resp, err := f.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPStatusError{Status: resp.StatusCode, URL: url}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &DecodeError{URL: url, Err: err}
	}
	return nil
}

// VerifyChecksum streams path through SHA-256 and compares the hex digest
// against expected, case-sensitively. A mismatch returns (false, nil); an
// error is only returned when the file could not be read.
func (f *Fetcher) VerifyChecksum(path, expected string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open %s for checksum: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return false, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if actual != expected {
		f.log.WithFields(logger.Fields{
			"expected": expected,
			"actual":   actual,
		}).Debug("Checksum mismatch")
		return false, nil
	}
	return true, nil
}
