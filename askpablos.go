package askpablos

import (
	"context"
	"errors"
	"net/http"
)

// AskPablos is the public facade for making GET requests through the proxy
// service. It is deliberately GET-oriented to keep the surface small; the
// underlying ProxyClient carries the full signed pipeline.
type AskPablos struct {
	client     *ProxyClient
	logger     Logger
	apiURL     string
	httpClient *http.Client
}

// New creates a client with the given credentials. The internal signer is
// constructed eagerly, so missing or empty credentials fail here rather than
// at the first Get.
func New(apiKey, secretKey string, opts ...Option) (*AskPablos, error) {
	a := &AskPablos{
		logger: NopLogger{},
		apiURL: DefaultAPIURL,
	}
	for _, opt := range opts {
		opt(a)
	}

	client, err := NewProxyClient(apiKey, secretKey, a.apiURL, a.httpClient, a.logger)
	if err != nil {
		return nil, err
	}
	a.client = client
	return a, nil
}

// Get fetches the target URL through the proxy. Per-request behavior is
// configured with GetOptions; see WithBrowser, WithScreenshot, WithTimeout
// and friends. Browser-dependent features fail fast here, before any signing
// or network work, and every failure from the pipeline is logged once at this
// boundary and returned unchanged.
func (a *AskPablos) Get(ctx context.Context, url string, opts ...GetOption) (*ResponseData, error) {
	cfg := defaultGetConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := ValidateBrowserDependencies(cfg.browser, cfg.waitForLoad, cfg.screenshot, cfg.jsStrategy); err != nil {
		return nil, err
	}

	options := BuildProxyOptions(cfg.browser, cfg.rotateProxy, cfg.waitForLoad, cfg.screenshot, cfg.jsStrategy, cfg.extra)

	rd, err := a.client.Request(ctx, url, http.MethodGet, cfg.headers, cfg.params, options, cfg.timeout)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			a.logger.Error("GET request failed",
				Field{Key: "url", Value: url},
				Field{Key: "kind", Value: string(apiErr.Type)},
				Field{Key: "error", Value: apiErr.Message})
		}
		return nil, err
	}
	return rd, nil
}
