package askpablos

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ResponseData is the result of one proxied request. It is constructed once
// from the backend envelope and not mutated afterwards.
type ResponseData struct {
	// StatusCode is the HTTP status returned by the target server.
	StatusCode int

	// Headers are the response headers from the target server.
	Headers map[string]string

	// Content is the raw response body. It is always captured; JSON below is
	// a best-effort convenience.
	Content string

	// URL is the final URL after any redirects.
	URL string

	// ElapsedTime is the wall-clock time of the whole exchange, measured
	// around the network call.
	ElapsedTime time.Duration

	// Encoding is the response text encoding, when the backend reports one.
	Encoding string

	// JSON holds the decoded body when Content is valid JSON, nil otherwise.
	JSON any

	// Screenshot is the base64-encoded page screenshot, present only when
	// the request asked for one and the backend returned one.
	Screenshot string
}

// proxyResponse is the JSON envelope the backend answers with.
type proxyResponse struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Content    string            `json:"content"`
	URL        string            `json:"url"`
	Encoding   string            `json:"encoding,omitempty"`
	Screenshot string            `json:"screenshot,omitempty"`
}

// newResponseData builds the immutable result from the backend envelope. A
// JSON decode of the content is attempted opportunistically; a parse failure
// is silent and leaves JSON nil.
func newResponseData(env proxyResponse, elapsed time.Duration, wantScreenshot bool) *ResponseData {
	rd := &ResponseData{
		StatusCode:  env.StatusCode,
		Headers:     env.Headers,
		Content:     env.Content,
		URL:         env.URL,
		ElapsedTime: elapsed,
		Encoding:    env.Encoding,
	}
	if env.Content != "" {
		var decoded any
		if err := json.Unmarshal([]byte(env.Content), &decoded); err == nil {
			rd.JSON = decoded
		}
	}
	if wantScreenshot {
		rd.Screenshot = env.Screenshot
	}
	return rd
}

// Document parses Content as HTML for selector-based extraction.
func (r *ResponseData) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(r.Content))
}
