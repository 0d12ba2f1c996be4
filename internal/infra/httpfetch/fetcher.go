package httpfetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/mohamedmoataz-oacc/history4feed/internal/domain/entity"
)

// proxyCountryAllowList is the fixed set of origin countries requested from
// the proxy. Stays a constant until a caller needs to vary it.
const proxyCountryAllowList = "us,ca,mx,gb,fr,de,au,at,be,hr,cz,dk,ee,fi,ie,se,es,pt,nl"

const proxyEndpoint = "https://api.scrapfly.io/scrape"

// proxyAPIKeyEnv is the single well-known environment variable gating proxy
// indirection.
const proxyAPIKeyEnv = "SCRAPFLE_APIKEY"

// Fetcher issues retrying GETs, optionally indirected through a proxy, with
// opportunistic Brotli decompression of direct responses.
type Fetcher struct {
	client      *http.Client
	cfg         Config
	proxyAPIKey string
}

// New builds a Fetcher from cfg. The proxy API key, if any, is read once
// here rather than per-request, so the Fetcher carries no global mutable
// state and a process can hold several Fetchers with different keys.
func New(cfg Config) (*Fetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
	}
	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return &Fetcher{
		client:      client,
		cfg:         cfg,
		proxyAPIKey: os.Getenv(proxyAPIKeyEnv),
	}, nil
}

// Fetch issues a GET for urlStr. On a direct (non-proxied) fetch, once retries
// are exhausted on a 4xx/5xx response, the last response body is returned
// unchanged rather than as an error, so the caller can still inspect it (a
// malformed archive capture, for instance, is still worth attempting to
// parse). A direct response below 400 (including an unfollowed 3xx) is
// returned as a body. Proxy responses with status >= 400 or 3xx are errors
// (KindFetchTransport and KindFetchRedirect respectively).
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) ([]byte, error) {
	if err := validateURL(urlStr, f.cfg.DenyPrivateIPs); err != nil {
		return nil, entity.NewError(entity.KindFetchTransport, "Fetch", urlStr, err)
	}
	if f.proxyAPIKey != "" {
		return f.fetchViaProxy(ctx, urlStr)
	}
	return f.fetchDirect(ctx, urlStr)
}

func (f *Fetcher) fetchDirect(ctx context.Context, urlStr string) ([]byte, error) {
	var lastBody []byte
	var lastErr error

	attempts := f.cfg.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(f.cfg.RetrySleep):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, status, err := f.doGet(ctx, urlStr)
		if err != nil {
			lastErr = err
			continue
		}
		lastBody = body
		lastErr = nil
		if status < 400 {
			return decompressOpportunistically(body), nil
		}
		// 4xx/5xx: retry, keeping the body around in case retries exhaust.
	}

	if lastErr != nil && lastBody == nil {
		return nil, entity.NewError(entity.KindFetchTransport, "fetchDirect", urlStr, lastErr)
	}
	// Retries exhausted on a non-2xx status; return the last body unchanged.
	return lastBody, nil
}

func (f *Fetcher) doGet(ctx context.Context, urlStr string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func decompressOpportunistically(body []byte) []byte {
	if body == nil {
		return nil
	}
	decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
	if err != nil || len(decoded) == 0 {
		return body
	}
	return decoded
}

// proxyResult mirrors the `result` envelope the proxy wraps responses in.
type proxyResult struct {
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Content    string `json:"content"`
}

type proxyEnvelope struct {
	Result proxyResult `json:"result"`
}

func (f *Fetcher) fetchViaProxy(ctx context.Context, target string) ([]byte, error) {
	q := url.Values{}
	q.Set("key", f.proxyAPIKey)
	q.Set("url", target)
	q.Set("country", proxyCountryAllowList)

	reqURL := proxyEndpoint + "?" + q.Encode()
	body, _, err := f.doGet(ctx, reqURL)
	if err != nil {
		return nil, entity.NewError(entity.KindFetchTransport, "fetchViaProxy", target, err)
	}

	var env proxyEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, entity.NewError(entity.KindFetchTransport, "fetchViaProxy", target, err)
	}

	switch {
	case env.Result.StatusCode > 399:
		return nil, entity.NewError(entity.KindFetchTransport, "fetchViaProxy", target,
			fmt.Errorf("proxy status %d (%s)", env.Result.StatusCode, env.Result.Status))
	case env.Result.StatusCode > 299:
		return nil, entity.NewError(entity.KindFetchRedirect, "fetchViaProxy", target,
			fmt.Errorf("proxy redirected, status %d (%s)", env.Result.StatusCode, env.Result.Status))
	}
	return []byte(env.Result.Content), nil
}
