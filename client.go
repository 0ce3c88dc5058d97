package askpablos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultAPIURL is the production proxy endpoint.
const DefaultAPIURL = "https://api.askpablos.com/v1/proxy"

// proxyRequest is the JSON envelope posted to the proxy endpoint. Caller
// headers and signature headers travel as HTTP headers on the exchange
// itself, not inside the envelope.
type proxyRequest struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Params  map[string]string `json:"params,omitempty"`
	Options RequestOptions    `json:"options"`
}

// proxyErrorBody is the shape of a backend-supplied error payload.
type proxyErrorBody struct {
	Error string `json:"error"`
}

// ProxyClient performs the signed network exchange with the proxy endpoint.
// Each call builds its request state from scratch, so a single client is safe
// for concurrent use to the same extent as its *http.Client.
type ProxyClient struct {
	auth       *AuthManager
	apiURL     string
	signPath   string
	httpClient *http.Client
	logger     Logger
}

// NewProxyClient constructs a client for the given endpoint. Credentials are
// checked eagerly by the AuthManager.
func NewProxyClient(apiKey, secretKey, apiURL string, httpClient *http.Client, logger Logger) (*ProxyClient, error) {
	auth, err := NewAuthManager(apiKey, secretKey)
	if err != nil {
		return nil, err
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return nil, NewValidationError("invalid API URL: %v", err)
	}
	signPath := parsed.Path
	if signPath == "" {
		signPath = "/"
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = NopLogger{}
	}
	return &ProxyClient{
		auth:       auth,
		apiURL:     apiURL,
		signPath:   signPath,
		httpClient: httpClient,
		logger:     logger.With(Field{Key: "component", Value: "proxy_client"}),
	}, nil
}

// Request validates, signs and dispatches exactly once, then parses the
// response envelope. Retries are a caller concern. timeout is in seconds and
// bounds the whole exchange; expiry surfaces as a connection error.
func (c *ProxyClient) Request(ctx context.Context, targetURL, method string, headers, params map[string]string,
	options RequestOptions, timeout int) (*ResponseData, error) {

	normalized, err := ValidateRequestParams(targetURL, method, headers, params,
		options.Browser, options.WaitForLoad, options.Screenshot, options.JSStrategy, timeout)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(proxyRequest{
		URL:     targetURL,
		Method:  normalized,
		Params:  params,
		Options: options,
	})
	if err != nil {
		return nil, NewValidationError("encode request payload: %v", err)
	}

	sigHeaders := c.auth.Sign(http.MethodPost, c.signPath, body)
	requestID := sigHeaders[HeaderRequestID]

	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, NewConnectionError("create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range sigHeaders {
		httpReq.Header.Set(k, v)
	}

	c.logger.Debug("dispatching proxy request",
		Field{Key: "url", Value: targetURL},
		Field{Key: "method", Value: normalized},
		Field{Key: "browser", Value: options.Browser},
		Field{Key: "request_id", Value: requestID})

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn("proxy request failed",
			Field{Key: "url", Value: targetURL},
			Field{Key: "request_id", Value: requestID},
			Field{Key: "error", Value: err.Error()})
		connErr := NewConnectionError("failed to connect to AskPablos API", err)
		if errors.Is(err, context.DeadlineExceeded) {
			connErr.Message = fmt.Sprintf("request timed out after %d seconds", timeout)
		}
		connErr.RequestID = requestID
		return nil, connErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		connErr := NewConnectionError("read response body", err)
		connErr.RequestID = requestID
		return nil, connErr
	}

	if apiErr := classifyStatus(resp.StatusCode, raw); apiErr != nil {
		apiErr.RequestID = requestID
		c.logger.Warn("proxy returned error status",
			Field{Key: "status", Value: resp.StatusCode},
			Field{Key: "request_id", Value: requestID})
		return nil, apiErr
	}

	var env proxyResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		respErr := NewResponseError("invalid response envelope from API", resp.StatusCode)
		respErr.Cause = err
		respErr.RequestID = requestID
		return nil, respErr
	}

	rd := newResponseData(env, elapsed, options.Browser && options.Screenshot)
	c.logger.Debug("proxy request completed",
		Field{Key: "status", Value: rd.StatusCode},
		Field{Key: "elapsed", Value: elapsed.String()},
		Field{Key: "request_id", Value: requestID})
	return rd, nil
}

// classifyStatus maps a non-success backend status onto the error taxonomy.
// 401/403 mean the credentials were rejected; everything else non-2xx is a
// response error carrying the status and any backend-supplied message.
func classifyStatus(status int, body []byte) *APIError {
	if status >= 200 && status < 300 {
		return nil
	}

	message := backendMessage(body)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		if message == "" {
			message = "authentication failed: invalid API key or signature"
		}
		authErr := NewAuthenticationError(message)
		authErr.StatusCode = status
		return authErr
	}

	if message == "" {
		message = fmt.Sprintf("API request failed with status %d", status)
	}
	return NewResponseError(message, status)
}

// backendMessage extracts the error field from a JSON error body, falling
// back to empty when the body is absent or unstructured.
func backendMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var eb proxyErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}
	return ""
}
