package askpablos

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// JSStrategy selects the JavaScript execution strategy the proxy applies when
// browser rendering is enabled. The backend speaks a tri-state wire value
// ("DEFAULT", true, false); the enum keeps the Go surface strongly typed and
// translates at the boundary.
type JSStrategy int

const (
	// JSStrategyDefault lets the proxy pick its own rendering techniques.
	JSStrategyDefault JSStrategy = iota

	// JSStrategyStealthMinimal injects the stealth script and runs minimal JS.
	// Wire value: true.
	JSStrategyStealthMinimal

	// JSStrategyDisabled skips stealth injection and JS rendering entirely.
	// Wire value: false.
	JSStrategyDisabled
)

func (s JSStrategy) String() string {
	switch s {
	case JSStrategyDefault:
		return "DEFAULT"
	case JSStrategyStealthMinimal:
		return "STEALTH_MINIMAL"
	case JSStrategyDisabled:
		return "DISABLED"
	default:
		return fmt.Sprintf("JSStrategy(%d)", int(s))
	}
}

// wireValue returns the tri-state value the backend expects.
func (s JSStrategy) wireValue() any {
	switch s {
	case JSStrategyStealthMinimal:
		return true
	case JSStrategyDisabled:
		return false
	default:
		return "DEFAULT"
	}
}

// MarshalJSON encodes the tri-state wire form.
func (s JSStrategy) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.wireValue())
}

// UnmarshalJSON accepts "DEFAULT", true or false.
func (s *JSStrategy) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := ParseJSStrategy(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseJSStrategy translates a tri-state wire value into the enum. Valid
// inputs are the string "DEFAULT", true and false.
func ParseJSStrategy(v any) (JSStrategy, error) {
	switch val := v.(type) {
	case string:
		if val == "DEFAULT" {
			return JSStrategyDefault, nil
		}
	case bool:
		if val {
			return JSStrategyStealthMinimal, nil
		}
		return JSStrategyDisabled, nil
	}
	return JSStrategyDefault, fmt.Errorf("js_strategy must be one of: DEFAULT, true, false")
}

// RequestOptions is the canonical proxy-control payload for one request.
// Built fresh per request and never mutated afterwards.
type RequestOptions struct {
	Browser     bool
	RotateProxy bool
	WaitForLoad bool
	Screenshot  bool
	JSStrategy  JSStrategy

	// Extra carries forward-compatible options the validator does not yet
	// know about. Entries are merged into the wire payload last and may
	// override the named fields.
	Extra map[string]string
}

// BuildProxyOptions composes the canonical options structure. Browser-only
// flags are recorded regardless but only serialized onto the wire when
// Browser is true, which keeps the payload minimal and avoids signaling
// unsupported combinations to the backend. The extra map is copied.
func BuildProxyOptions(browser, rotateProxy, waitForLoad, screenshot bool, js JSStrategy, extra map[string]string) RequestOptions {
	opts := RequestOptions{
		Browser:     browser,
		RotateProxy: rotateProxy,
		WaitForLoad: waitForLoad,
		Screenshot:  screenshot,
		JSStrategy:  js,
	}
	if len(extra) > 0 {
		opts.Extra = make(map[string]string, len(extra))
		for k, v := range extra {
			opts.Extra[k] = v
		}
	}
	return opts
}

// wireMap flattens the options for the proxy payload. Extras are merged last,
// later writer wins.
func (o RequestOptions) wireMap() map[string]any {
	m := map[string]any{
		"browser":      o.Browser,
		"rotate_proxy": o.RotateProxy,
	}
	if o.Browser {
		m["wait_for_load"] = o.WaitForLoad
		m["screenshot"] = o.Screenshot
		m["js_strategy"] = o.JSStrategy.wireValue()
	}
	for k, v := range o.Extra {
		m[k] = v
	}
	return m
}

// MarshalJSON serializes the wire form of the options.
func (o RequestOptions) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.wireMap())
}

// Option configures the AskPablos client at construction time.
type Option func(*AskPablos)

// WithLogger injects a structured logger scoped to this client instance.
func WithLogger(l Logger) Option {
	return func(a *AskPablos) {
		a.logger = l
	}
}

// WithAPIURL overrides the proxy endpoint, e.g. to point at a local
// demoserver.
func WithAPIURL(url string) Option {
	return func(a *AskPablos) {
		a.apiURL = url
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *AskPablos) {
		a.httpClient = hc
	}
}

// getConfig collects per-request settings before validation.
type getConfig struct {
	params      map[string]string
	headers     map[string]string
	browser     bool
	rotateProxy bool
	waitForLoad bool
	screenshot  bool
	jsStrategy  JSStrategy
	timeout     int
	extra       map[string]string
}

func defaultGetConfig() getConfig {
	return getConfig{
		jsStrategy: JSStrategyDefault,
		timeout:    DefaultTimeout,
	}
}

// GetOption configures a single Get call.
type GetOption func(*getConfig)

// WithParams sets URL query parameters appended to the target URL.
func WithParams(params map[string]string) GetOption {
	return func(c *getConfig) {
		c.params = params
	}
}

// WithHeaders sets custom headers forwarded to the target.
func WithHeaders(headers map[string]string) GetOption {
	return func(c *getConfig) {
		c.headers = headers
	}
}

// WithBrowser toggles browser automation for JavaScript rendering. Useful
// for SPAs and dynamic content.
func WithBrowser(enabled bool) GetOption {
	return func(c *getConfig) {
		c.browser = enabled
	}
}

// WithRotateProxy toggles proxy rotation for this request.
func WithRotateProxy(enabled bool) GetOption {
	return func(c *getConfig) {
		c.rotateProxy = enabled
	}
}

// WithWaitForLoad waits for page load completion. Requires WithBrowser(true).
func WithWaitForLoad(enabled bool) GetOption {
	return func(c *getConfig) {
		c.waitForLoad = enabled
	}
}

// WithScreenshot captures a screenshot of the page. Requires
// WithBrowser(true).
func WithScreenshot(enabled bool) GetOption {
	return func(c *getConfig) {
		c.screenshot = enabled
	}
}

// WithJSStrategy selects the JavaScript execution strategy. A non-default
// strategy requires WithBrowser(true).
func WithJSStrategy(s JSStrategy) GetOption {
	return func(c *getConfig) {
		c.jsStrategy = s
	}
}

// WithTimeout sets the request timeout in seconds. Valid range is 1 to 300.
func WithTimeout(seconds int) GetOption {
	return func(c *getConfig) {
		c.timeout = seconds
	}
}

// WithExtra adds a forward-compatible proxy option such as user_agent or
// cookies. Extras are merged into the payload last and may override the
// named options.
func WithExtra(key, value string) GetOption {
	return func(c *getConfig) {
		if c.extra == nil {
			c.extra = make(map[string]string)
		}
		c.extra[key] = value
	}
}
