package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"time"

	"go.uber.org/zap"
)

// DefaultExtension is used when an asset URL carries no file extension.
const DefaultExtension = ".png"

// maxAssetSize caps a single downloaded image at 32 MiB.
const maxAssetSize = 32 << 20

// Fetcher downloads referenced image URLs for bundled export. It never
// retries within a run; retries happen across runs via the export cache.
// Failures are logged and reported as ok=false, never raised.
type Fetcher struct {
	client *http.Client
	logger *zap.Logger
}

// New creates a fetcher with a transport tuned for strict timeouts.
func New(logger *zap.Logger) *Fetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
	return &Fetcher{
		client: &http.Client{Transport: transport, Timeout: 60 * time.Second},
		logger: logger,
	}
}

// NewWithClient creates a fetcher with a caller-supplied HTTP client.
func NewWithClient(client *http.Client, logger *zap.Logger) *Fetcher {
	return &Fetcher{client: client, logger: logger}
}

// Fetch downloads one URL to bytes. The returned extension is derived from
// the URL path (DefaultExtension when absent). ok is false on any failure.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (data []byte, ext string, ok bool) {
	ext = Extension(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		f.logger.Warn("Asset URL rejected", zap.String("url", rawURL), zap.Error(err))
		return nil, ext, false
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("Asset download failed", zap.String("url", rawURL), zap.Error(err))
		return nil, ext, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("Asset download returned non-OK status",
			zap.String("url", rawURL), zap.Int("status", resp.StatusCode))
		return nil, ext, false
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		f.logger.Warn("Asset body read failed", zap.String("url", rawURL), zap.Error(err))
		return nil, ext, false
	}
	return data, ext, true
}

// Extension derives the file extension from a URL's path.
func Extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return DefaultExtension
	}
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return DefaultExtension
}
