// Package demoserver implements a stand-in AskPablos proxy backend for local
// development and end-to-end exercise of the client pipeline. It verifies
// request signatures with the same canonical scheme the client signs with,
// fetches the requested target (optionally rendering it in a headless
// browser) and answers with the JSON envelope the client parses.
package demoserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"

	askpablos "github.com/fawadss1/askpablos-api"
)

// proxyRequest mirrors the wire envelope posted by the client. Options stay
// loosely typed here because extras are free-form.
type proxyRequest struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Params  map[string]string `json:"params,omitempty"`
	Options map[string]any    `json:"options"`
}

// proxyResponse is the envelope returned to the client.
type proxyResponse struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Content    string            `json:"content"`
	URL        string            `json:"url"`
	Encoding   string            `json:"encoding,omitempty"`
	Screenshot string            `json:"screenshot,omitempty"`
}

// DemoServer is the HTTP surface of the stand-in backend.
type DemoServer struct {
	cfg     Config
	auth    *askpablos.AuthManager
	router  chi.Router
	fetcher *http.Client
	logger  askpablos.Logger
	now     func() time.Time
}

// NewDemoServer creates a demo server with the configured credentials.
func NewDemoServer(cfg Config) (*DemoServer, error) {
	auth, err := askpablos.NewAuthManager(cfg.APIKey, cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("demoserver credentials: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = askpablos.NopLogger{}
	}

	s := &DemoServer{
		cfg:     cfg,
		auth:    auth,
		fetcher: &http.Client{Timeout: 60 * time.Second},
		logger:  logger.With(askpablos.Field{Key: "component", Value: "demoserver"}),
		now:     time.Now,
	}

	r := chi.NewRouter()
	r.Post("/v1/proxy", s.proxyHandler)
	s.router = r
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *DemoServer) Handler() http.Handler { return s.router }

// Start blocks serving on the configured port.
func (s *DemoServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("demo proxy server starting", askpablos.Field{Key: "addr", Value: addr})
	return http.ListenAndServe(addr, s.router)
}

func (s *DemoServer) proxyHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	if msg := s.verifySignature(r, body); msg != "" {
		s.logger.Warn("rejected request", askpablos.Field{Key: "reason", Value: msg})
		writeError(w, http.StatusUnauthorized, msg)
		return
	}

	var req proxyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request envelope")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	browser := optBool(req.Options, "browser")
	s.logger.Debug("proxying request",
		askpablos.Field{Key: "url", Value: req.URL},
		askpablos.Field{Key: "method", Value: method},
		askpablos.Field{Key: "browser", Value: browser},
		askpablos.Field{Key: "request_id", Value: r.Header.Get(askpablos.HeaderRequestID)})

	var env *proxyResponse
	if browser && s.cfg.AllowBrowser {
		env, err = s.renderTarget(r.Context(), req)
	} else {
		if browser {
			s.logger.Warn("browser rendering disabled, falling back to plain fetch",
				askpablos.Field{Key: "url", Value: req.URL})
		}
		env, err = s.fetchTarget(r.Context(), method, req, forwardableHeaders(r.Header))
	}
	if err != nil {
		s.logger.Warn("target fetch failed",
			askpablos.Field{Key: "url", Value: req.URL},
			askpablos.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to fetch target: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(env)
}

// verifySignature checks the signature header set against the request facts.
// It returns a rejection reason, or empty on success.
func (s *DemoServer) verifySignature(r *http.Request, body []byte) string {
	if r.Header.Get(askpablos.HeaderAPIKey) != s.cfg.APIKey {
		return "unknown API key"
	}

	ts := r.Header.Get(askpablos.HeaderTimestamp)
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "missing or malformed timestamp"
	}
	if skew := s.now().Unix() - unix; skew > s.cfg.MaxSkewSeconds || skew < -s.cfg.MaxSkewSeconds {
		return "stale signature timestamp"
	}

	sig := r.Header.Get(askpablos.HeaderSignature)
	if sig == "" || !s.auth.Verify(r.Method, r.URL.Path, ts, body, sig) {
		return "signature mismatch"
	}
	return ""
}

// fetchTarget performs a plain HTTP fetch of the requested target.
func (s *DemoServer) fetchTarget(ctx context.Context, method string, req proxyRequest, headers http.Header) (*proxyResponse, error) {

	target, err := buildTargetURL(req.URL, req.Params)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := s.fetcher.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	env := &proxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Content:    string(content),
		URL:        resp.Request.URL.String(),
		Encoding:   charsetOf(resp.Header.Get("Content-Type")),
	}
	annotateTitle(env)
	return env, nil
}

// buildTargetURL appends query params to the target URL.
func buildTargetURL(target string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return target, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse target url: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// forwardableHeaders strips the signature and transport headers so only
// caller-supplied headers reach the target.
func forwardableHeaders(h http.Header) http.Header {
	skip := map[string]struct{}{}
	for _, k := range []string{
		askpablos.HeaderAPIKey,
		askpablos.HeaderTimestamp,
		askpablos.HeaderSignature,
		askpablos.HeaderRequestID,
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
	} {
		skip[http.CanonicalHeaderKey(k)] = struct{}{}
	}
	out := http.Header{}
	for k, vs := range h {
		if _, drop := skip[http.CanonicalHeaderKey(k)]; drop {
			continue
		}
		for _, v := range vs {
			out.Add(k, v)
		}
	}
	return out
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// charsetOf pulls the charset parameter out of a Content-Type value.
func charsetOf(contentType string) string {
	for _, part := range strings.Split(contentType, ";") {
		part = strings.TrimSpace(part)
		if rest, ok := strings.CutPrefix(part, "charset="); ok {
			return strings.ToLower(rest)
		}
	}
	return ""
}

// annotateTitle adds the page <title> as a response header for HTML content.
func annotateTitle(env *proxyResponse) {
	if !strings.Contains(env.Headers["Content-Type"], "text/html") {
		return
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(env.Content))
	if err != nil {
		return
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		env.Headers["X-Page-Title"] = title
	}
}

func optBool(options map[string]any, key string) bool {
	v, ok := options[key].(bool)
	return ok && v
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
