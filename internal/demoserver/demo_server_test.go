package demoserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	askpablos "github.com/fawadss1/askpablos-api"
)

func newTestServer(t *testing.T) *DemoServer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.SecretKey = "test-secret"

	s, err := NewDemoServer(cfg)
	if err != nil {
		t.Fatalf("NewDemoServer: %v", err)
	}
	return s
}

// signedRequest builds a correctly signed proxy request for the test server.
func signedRequest(t *testing.T, body []byte) *http.Request {
	t.Helper()
	auth, err := askpablos.NewAuthManager("test-key", "test-secret")
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/proxy", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range auth.Sign(http.MethodPost, "/v1/proxy", body) {
		req.Header.Set(k, v)
	}
	return req
}

func TestProxyRejectsUnknownAPIKey(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/proxy", strings.NewReader("{}"))
	req.Header.Set(askpablos.HeaderAPIKey, "someone-else")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unknown API key") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestProxyRejectsTamperedSignature(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	body := []byte(`{"url":"https://example.com","method":"GET","options":{"browser":false}}`)
	req := signedRequest(t, body)
	req.Header.Set(askpablos.HeaderSignature, "bm90LXRoZS1zaWduYXR1cmU=")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "signature mismatch") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestProxyRejectsStaleTimestamp(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	// Sign with a timestamp well outside the skew window. The signature
	// itself is valid for that timestamp, so only freshness can reject it.
	auth, _ := askpablos.NewAuthManager("test-key", "test-secret")
	body := []byte(`{"url":"https://example.com","options":{}}`)
	stale := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)

	req := httptest.NewRequest(http.MethodPost, "/v1/proxy", bytes.NewReader(body))
	req.Header.Set(askpablos.HeaderAPIKey, "test-key")
	req.Header.Set(askpablos.HeaderTimestamp, stale)
	req.Header.Set(askpablos.HeaderSignature, auth.SignatureAt(http.MethodPost, "/v1/proxy", stale, body))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "stale") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestProxyFetchesTarget(t *testing.T) {
	t.Parallel()

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "1" {
			t.Error("params not appended to target URL")
		}
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`<html><head><title>Teapot</title></head><body></body></html>`))
	}))
	defer target.Close()

	s := newTestServer(t)
	body, _ := json.Marshal(map[string]any{
		"url":     target.URL,
		"method":  "GET",
		"params":  map[string]string{"q": "1"},
		"options": map[string]any{"browser": false, "rotate_proxy": false},
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, signedRequest(t, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var env proxyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.StatusCode != http.StatusTeapot {
		t.Errorf("target status = %d, want 418", env.StatusCode)
	}
	if env.Encoding != "iso-8859-1" {
		t.Errorf("encoding = %q", env.Encoding)
	}
	if env.Headers["X-Page-Title"] != "Teapot" {
		t.Errorf("title annotation = %q", env.Headers["X-Page-Title"])
	}
	if !strings.Contains(env.Content, "<title>Teapot</title>") {
		t.Errorf("content = %q", env.Content)
	}
}

func TestProxyRejectsMalformedEnvelope(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, signedRequest(t, []byte("not json")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestProxyReportsUnreachableTarget(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	body, _ := json.Marshal(map[string]any{
		"url":     "http://127.0.0.1:1/nothing",
		"options": map[string]any{"browser": false},
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, signedRequest(t, body))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "failed to fetch target") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestBuildTargetURL(t *testing.T) {
	t.Parallel()

	got, err := buildTargetURL("https://example.com/path", map[string]string{"a": "1"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://example.com/path?a=1" {
		t.Errorf("url = %q", got)
	}

	got, err = buildTargetURL("https://example.com/path?x=0", map[string]string{"a": "b c"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "a=b+c") || !strings.Contains(got, "x=0") {
		t.Errorf("url = %q", got)
	}
}

func TestForwardableHeadersStripsSignature(t *testing.T) {
	t.Parallel()

	in := http.Header{}
	in.Set(askpablos.HeaderAPIKey, "k")
	in.Set(askpablos.HeaderSignature, "s")
	in.Set(askpablos.HeaderTimestamp, "1")
	in.Set(askpablos.HeaderRequestID, "r")
	in.Set("Content-Type", "application/json")
	in.Set("X-Caller", "yes")

	out := forwardableHeaders(in)
	if len(out) != 1 || out.Get("X-Caller") != "yes" {
		t.Errorf("forwarded headers = %v", out)
	}
}

func TestCharsetOf(t *testing.T) {
	t.Parallel()
	if got := charsetOf("text/html; charset=UTF-8"); got != "utf-8" {
		t.Errorf("charset = %q", got)
	}
	if got := charsetOf("application/json"); got != "" {
		t.Errorf("charset = %q, want empty", got)
	}
}
