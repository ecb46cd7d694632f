package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hsorel/shelf/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "shelf/1.0"
)

// Client fetches the catalogue manifest and its advertised
// fingerprint from the content provider.
type Client struct {
	manifestURL string
	latestURL   string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a manifest client. latestURL serves the current
// fingerprint alone, so the version gate does not pay for a full
// manifest fetch when the cache is already fresh.
func NewClient(manifestURL, latestURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		manifestURL: manifestURL,
		latestURL:   latestURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// Fetch retrieves and decodes the full manifest.
func (c *Client) Fetch(ctx context.Context) (*Manifest, error) {
	body, err := c.get(ctx, c.manifestURL)
	if err != nil {
		return nil, err
	}
	m, err := Decode(body)
	if err != nil {
		c.logger.Error("failed to decode manifest", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrManifestUnavailable, err)
	}
	c.logger.Debug("fetched manifest", "hash", m.Hash, "entries", len(m.Entries))
	return m, nil
}

// LatestFingerprint retrieves the fingerprint currently advertised by
// the provider. The payload is a bare JSON string or number.
func (c *Client) LatestFingerprint(ctx context.Context) (string, error) {
	body, err := c.get(ctx, c.latestURL)
	if err != nil {
		return "", err
	}
	hash, err := decodeHash(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrManifestUnavailable, err)
	}
	return hash, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("manifest request", "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("manifest request failed", "url", url, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrManifestUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("manifest request rejected", "url", url, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrManifestUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrManifestUnavailable, err)
	}
	return body, nil
}

// decodeHash normalizes the fingerprint, which may arrive as a JSON
// string or number, into a string.
func decodeHash(data []byte) (string, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("fingerprint is neither string nor number: %s", raw)
}
