package askpablos

import (
	"strings"
)

// Validation rules for request parameters. Everything here is a pure,
// side-effect-free gate applied before any signing or network work. The
// browser-dependency rule lives only here; the facade calls it rather than
// keeping its own copy.

var validMethods = map[string]struct{}{
	"GET": {}, "POST": {}, "PUT": {}, "DELETE": {}, "PATCH": {}, "HEAD": {}, "OPTIONS": {},
}

// ValidateURL checks that url is non-empty and uses an http or https scheme.
func ValidateURL(url string) error {
	if url == "" {
		return NewValidationError("URL is required and cannot be empty")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return NewValidationError("URL must start with 'http://' or 'https://'")
	}
	return nil
}

// ValidateMethod checks the HTTP method against the supported set,
// case-insensitively. The normalized upper-case form is returned.
func ValidateMethod(method string) (string, error) {
	upper := strings.ToUpper(method)
	if _, ok := validMethods[upper]; !ok {
		return "", NewValidationError("HTTP method must be one of: GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS")
	}
	return upper, nil
}

// ValidateHeaders checks the header mapping shape. Keys must be non-empty.
func ValidateHeaders(headers map[string]string) error {
	for k := range headers {
		if strings.TrimSpace(k) == "" {
			return NewValidationError("header key cannot be empty")
		}
	}
	return nil
}

// ValidateParams checks the query parameter mapping shape.
func ValidateParams(params map[string]string) error {
	for k := range params {
		if strings.TrimSpace(k) == "" {
			return NewValidationError("parameter key cannot be empty")
		}
	}
	return nil
}

// ValidateJSStrategy rejects values outside the three known variants, which
// guards against callers casting arbitrary ints.
func ValidateJSStrategy(s JSStrategy) error {
	switch s {
	case JSStrategyDefault, JSStrategyStealthMinimal, JSStrategyDisabled:
		return nil
	}
	return NewValidationError("js_strategy must be one of: DEFAULT, STEALTH_MINIMAL, DISABLED")
}

// MaxTimeout is the upper bound on the per-request timeout, in seconds.
const MaxTimeout = 300

// DefaultTimeout is the per-request timeout applied when none is given.
const DefaultTimeout = 30

// ValidateTimeout checks the timeout is a positive number of seconds no
// greater than MaxTimeout.
func ValidateTimeout(timeout int) error {
	if timeout <= 0 {
		return NewValidationError("timeout must be greater than 0")
	}
	if timeout > MaxTimeout {
		return NewValidationError("timeout cannot exceed %d seconds", MaxTimeout)
	}
	return nil
}

// ValidateBrowserDependencies enforces that browser-dependent features are
// only requested together with browser mode. The error lists every offending
// feature, comma-joined, in the order wait_for_load, screenshot, js_strategy.
func ValidateBrowserDependencies(browser, waitForLoad, screenshot bool, js JSStrategy) error {
	if browser {
		return nil
	}

	var offending []string
	if waitForLoad {
		offending = append(offending, "wait_for_load=true")
	}
	if screenshot {
		offending = append(offending, "screenshot=true")
	}
	if js != JSStrategyDefault {
		offending = append(offending, "js_strategy="+js.String())
	}

	if len(offending) > 0 {
		return NewValidationError("browser=true is required for these actions: %s", strings.Join(offending, ", "))
	}
	return nil
}

// ValidateRequestParams applies every rule in order: URL, method, headers,
// query params, js strategy, timeout, browser dependencies. The first failure
// wins. The normalized upper-case method is returned.
func ValidateRequestParams(url, method string, headers, params map[string]string,
	browser, waitForLoad, screenshot bool, js JSStrategy, timeout int) (string, error) {

	if err := ValidateURL(url); err != nil {
		return "", err
	}
	normalized, err := ValidateMethod(method)
	if err != nil {
		return "", err
	}
	if err := ValidateHeaders(headers); err != nil {
		return "", err
	}
	if err := ValidateParams(params); err != nil {
		return "", err
	}
	if err := ValidateJSStrategy(js); err != nil {
		return "", err
	}
	if err := ValidateTimeout(timeout); err != nil {
		return "", err
	}
	if err := ValidateBrowserDependencies(browser, waitForLoad, screenshot, js); err != nil {
		return "", err
	}
	return normalized, nil
}
