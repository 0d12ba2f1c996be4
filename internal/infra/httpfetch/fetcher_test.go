package httpfetch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/mohamedmoataz-oacc/history4feed/internal/domain/entity"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DenyPrivateIPs = false // httptest servers bind to loopback
	cfg.RetrySleep = time.Millisecond
	cfg.MaxRetries = 2
	return cfg
}

func TestFetch_RetryExhaustion_ReturnsLastBodyUnchanged(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("server error body"))
	}))
	defer server.Close()

	f, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	body, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch should not return an error once retries exhaust on a 5xx, got %v", err)
	}
	if string(body) != "server error body" {
		t.Fatalf("body = %q, want the last response body unchanged", body)
	}
	if hits != testConfig().MaxRetries+1 {
		t.Fatalf("hits = %d, want %d (MaxRetries+1 attempts)", hits, testConfig().MaxRetries+1)
	}
}

func TestFetch_SucceedsAfterTransientFailures(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok body"))
	}))
	defer server.Close()

	f, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	body, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "ok body" {
		t.Fatalf("body = %q, want ok body", body)
	}
}

func TestFetch_RejectsInvalidScheme(t *testing.T) {
	f, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = f.Fetch(context.Background(), "ftp://example.com")
	if !entity.IsKind(err, entity.KindFetchTransport) {
		t.Fatalf("expected KindFetchTransport for an invalid scheme, got %v", err)
	}
}

func TestDecompressOpportunistically_DecodesBrotli(t *testing.T) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write([]byte("hello world")); err != nil {
		t.Fatalf("brotli write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("brotli close: %v", err)
	}

	got := decompressOpportunistically(buf.Bytes())
	if string(got) != "hello world" {
		t.Fatalf("got %q, want decompressed hello world", got)
	}
}

func TestDecompressOpportunistically_PassesThroughNonBrotli(t *testing.T) {
	got := decompressOpportunistically([]byte("plain text"))
	if string(got) != "plain text" {
		t.Fatalf("got %q, want the original bytes unchanged", got)
	}
}

func proxyEnvelopeBody(t *testing.T, statusCode int, content string) string {
	t.Helper()
	env := proxyEnvelope{Result: proxyResult{StatusCode: statusCode, Status: "x", Content: content}}
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return string(b)
}

func withCannedBody(body string) http.RoundTripper {
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       httptestNopCloser{bytes.NewBufferString(body)},
			Header:     make(http.Header),
			Request:    req,
		}, nil
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

type httptestNopCloser struct{ *bytes.Buffer }

func (httptestNopCloser) Close() error { return nil }

func TestFetchViaProxy_MapsHighStatusToFetchTransportError(t *testing.T) {
	cfg := testConfig()
	f, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.proxyAPIKey = "test-key"
	f.client = &http.Client{Transport: withCannedBody(proxyEnvelopeBody(t, 500, ""))}

	_, err = f.Fetch(context.Background(), "https://example.com/article")
	if !entity.IsKind(err, entity.KindFetchTransport) {
		t.Fatalf("expected KindFetchTransport for a proxy status >= 400, got %v", err)
	}
}

func TestFetchViaProxy_MapsRedirectStatusToFetchRedirectError(t *testing.T) {
	cfg := testConfig()
	f, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.proxyAPIKey = "test-key"
	f.client = &http.Client{Transport: withCannedBody(proxyEnvelopeBody(t, 302, ""))}

	_, err = f.Fetch(context.Background(), "https://example.com/article")
	if !entity.IsKind(err, entity.KindFetchRedirect) {
		t.Fatalf("expected KindFetchRedirect for a proxy 3xx status, got %v", err)
	}
}

func TestFetchViaProxy_ReturnsContentOnSuccess(t *testing.T) {
	cfg := testConfig()
	f, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.proxyAPIKey = "test-key"
	f.client = &http.Client{Transport: withCannedBody(proxyEnvelopeBody(t, 200, "article body"))}

	body, err := f.Fetch(context.Background(), "https://example.com/article")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "article body" {
		t.Fatalf("body = %q, want article body", body)
	}
}
