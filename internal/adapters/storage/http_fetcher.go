package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/infrastructure/observability"
)

const (
	defaultS3Domain   = "s3.amazonaws.com"
	defaultChunkBytes = 8192

	// Asset payloads run to hundreds of megabytes; the client timeout has
	// to cover the whole body, not just the handshake.
	downloadTimeout = 15 * time.Minute
)

// HTTPFetcher downloads scene assets over HTTP, rewriting s3:// hrefs to the
// public object-store endpoint. Files land as <sceneID>_<role>.tif under the
// destination directory, overwriting any previous copy.
type HTTPFetcher struct {
	httpClient *http.Client
	s3Domain   string
	chunkBytes int
	metrics    *observability.Metrics
}

// NewHTTPFetcher creates a new asset fetcher
func NewHTTPFetcher(s3Domain string, chunkBytes int, metrics *observability.Metrics) *HTTPFetcher {
	return NewHTTPFetcherWithOptions(s3Domain, chunkBytes, nil, metrics)
}

// NewHTTPFetcherWithOptions creates an asset fetcher with a custom HTTP
// client, used by tests
func NewHTTPFetcherWithOptions(s3Domain string, chunkBytes int, httpClient *http.Client, metrics *observability.Metrics) *HTTPFetcher {
	if s3Domain == "" {
		s3Domain = defaultS3Domain
	}
	if chunkBytes <= 0 {
		chunkBytes = defaultChunkBytes
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: downloadTimeout}
	}
	return &HTTPFetcher{
		httpClient: httpClient,
		s3Domain:   s3Domain,
		chunkBytes: chunkBytes,
		metrics:    metrics,
	}
}

// Fetch downloads one asset role for a scene. The outcome is always a value:
// absent assets and failed transfers are reported, never returned as errors,
// so one bad role cannot abort the rest of the scene.
func (f *HTTPFetcher) Fetch(ctx context.Context, scene *entities.CatalogScene, role, destDir string) entities.RoleOutcome {
	outcome := entities.RoleOutcome{Role: role}

	asset, ok := scene.Asset(role)
	if !ok {
		outcome.Status = entities.OutcomeAssetAbsent
		return outcome
	}

	url, err := rewriteStorageURL(asset.Href, f.s3Domain)
	if err != nil {
		outcome.Status = entities.OutcomeFailed
		outcome.Detail = err.Error()
		return outcome
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		outcome.Status = entities.OutcomeFailed
		outcome.Detail = fmt.Sprintf("create directory: %v", err)
		return outcome
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		outcome.Status = entities.OutcomeFailed
		outcome.Detail = err.Error()
		return outcome
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		outcome.Status = entities.OutcomeFailed
		outcome.Detail = err.Error()
		return outcome
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		outcome.Status = entities.OutcomeFailed
		outcome.HTTPStatus = resp.StatusCode
		return outcome
	}

	path := filepath.Join(destDir, fmt.Sprintf("%s_%s.tif", scene.ID, role))
	written, err := f.writeFile(path, resp.Body)
	if err != nil {
		outcome.Status = entities.OutcomeFailed
		outcome.Detail = err.Error()
		return outcome
	}

	if f.metrics != nil {
		observability.RecordDownloadBytes(ctx, f.metrics, role, written)
	}

	outcome.Status = entities.OutcomeDownloaded
	outcome.Path = path
	return outcome
}

// writeFile streams the body to disk in fixed-size chunks, truncating any
// existing file at the same path. io.Copy is avoided on purpose: *os.File's
// ReadFrom would bypass the configured chunk size.
func (f *HTTPFetcher) writeFile(path string, body io.Reader) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	buf := make([]byte, f.chunkBytes)
	var written int64
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				file.Close()
				return written, writeErr
			}
			written += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			file.Close()
			return written, readErr
		}
	}
	return written, file.Close()
}

// rewriteStorageURL converts s3://bucket/key hrefs to their public HTTPS
// form, https://bucket.<domain>/key. Plain http(s) hrefs pass through
// untouched.
func rewriteStorageURL(href, s3Domain string) (string, error) {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href, nil
	}
	rest, ok := strings.CutPrefix(href, "s3://")
	if !ok {
		return "", fmt.Errorf("unsupported asset href scheme: %s", href)
	}
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", fmt.Errorf("malformed s3 href: %s", href)
	}
	return fmt.Sprintf("https://%s.%s/%s", bucket, s3Domain, key), nil
}
