package demoserver

import askpablos "github.com/fawadss1/askpablos-api"

// Config holds configuration for the demo proxy server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int

	// APIKey and SecretKey are the credentials clients must sign with.
	APIKey    string
	SecretKey string

	// MaxSkewSeconds bounds the accepted age of a request timestamp. A
	// signature with an older or future-dated timestamp is rejected.
	MaxSkewSeconds int64

	// AllowBrowser enables the chromedp rendering path for requests with
	// browser:true. Needs a local Chrome; tests leave it off.
	AllowBrowser bool

	// Logger receives structured request logs. Defaults to a nop logger.
	Logger askpablos.Logger
}

// DefaultConfig returns a Config with development defaults.
func DefaultConfig() Config {
	return Config{
		Port:           9999,
		APIKey:         "demo-api-key",
		SecretKey:      "demo-secret-key",
		MaxSkewSeconds: 300,
		AllowBrowser:   false,
	}
}
