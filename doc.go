// Package askpablos is a Go client for the AskPablos proxy API service.
//
// The client fetches remote web content through the proxy, optionally using
// browser automation for JavaScript rendering, and handles authentication,
// parameter validation and error normalization transparently.
//
// Basic usage:
//
//	client, err := askpablos.New("api-key", "secret-key")
//	if err != nil {
//		log.Fatal(err)
//	}
//	resp, err := client.Get(context.Background(), "https://example.com",
//		askpablos.WithBrowser(true),
//		askpablos.WithScreenshot(true),
//	)
//
// Every request is signed with HMAC-SHA256 using the secret key. Failures are
// reported as *APIError values that can be classified with IsValidationError,
// IsAuthenticationError, IsConnectionError and IsResponseError.
package askpablos
