package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"

	"github.com/salchaD-27/cargo-tidy-lints/internal/lint"
)

const (
	DefaultChannel = "stable"
	DefaultTimeout = 30 * time.Second

	baseURL   = "https://rust-lang.github.io/rust-clippy"
	userAgent = "cargo-tidy-lints (+https://github.com/salchaD-27/cargo-tidy-lints)"
)

var ErrUnexpectedStatus = errors.New("unexpected catalog response status")

// URL returns the location of the lints.json published for a channel
// ("stable", "master" or a release tag such as "rust-1.80.0").
func URL(channel string) string {
	if channel == "" {
		channel = DefaultChannel
	}
	return fmt.Sprintf("%s/%s/lints.json", baseURL, channel)
}

type Options struct {
	// URL overrides the channel derived location when set.
	URL     string
	Channel string
	Timeout time.Duration
	Client  *http.Client
	Logger  logrus.FieldLogger
}

type Fetcher struct {
	url    string
	client *http.Client
	log    logrus.FieldLogger
}

func New(opts Options) *Fetcher {
	url := opts.URL
	if url == "" {
		url = URL(opts.Channel)
	}

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Fetcher{url: url, client: client, log: log.WithField("url", url)}
}

// Fetch downloads and decodes the catalog. Compression is negotiated
// explicitly, so the body is decoded here rather than by the transport.
func (f *Fetcher) Fetch(ctx context.Context) ([]lint.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br")

	f.log.Debug("fetching lint catalog")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch lint catalog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch lint catalog: %w: %s", ErrUnexpectedStatus, resp.Status)
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	var items []lint.Item
	if err := json.NewDecoder(body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode lint catalog: %w", err)
	}

	f.log.WithField("lints", len(items)).Info("lint catalog fetched")
	return items, nil
}

func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("decode gzip catalog: %w", err)
		}
		return zr, nil
	case "br":
		return io.NopCloser(brotli.NewReader(resp.Body)), nil
	default:
		return io.NopCloser(resp.Body), nil
	}
}
