package askpablos

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Signature header names sent with every proxy request.
const (
	HeaderAPIKey    = "X-API-Key"
	HeaderTimestamp = "X-Timestamp"
	HeaderSignature = "X-Signature"
	HeaderRequestID = "X-Request-ID"
)

// AuthManager derives the signed-request header set from the credentials and
// the canonical facts of an outgoing request.
//
// Signing scheme (the compatibility contract with the backend):
//
//	canonical = METHOD + "\n" + path + "\n" + timestamp + "\n" + hex(SHA256(body))
//	signature = base64(HMAC-SHA256(secretKey, canonical))
//
// The timestamp is unix seconds, generated at signing time and part of the
// signed material so the backend can reject stale signatures; enforcing a
// staleness window is the backend's job. The X-Request-ID header is a uuid
// for correlation only and is not signed, keeping signatures deterministic
// for fixed canonical inputs.
type AuthManager struct {
	apiKey    string
	secretKey string
	now       func() time.Time
}

// NewAuthManager checks both credentials eagerly so a misconfigured client
// fails at construction, not at first request.
func NewAuthManager(apiKey, secretKey string) (*AuthManager, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, NewAuthenticationError("API key is required")
	}
	if strings.TrimSpace(secretKey) == "" {
		return nil, NewAuthenticationError("secret key is required")
	}
	return &AuthManager{
		apiKey:    apiKey,
		secretKey: secretKey,
		now:       time.Now,
	}, nil
}

// APIKey returns the public credential half.
func (m *AuthManager) APIKey() string { return m.apiKey }

func canonicalString(method, path, timestamp string, body []byte) string {
	digest := sha256.Sum256(body)
	return strings.ToUpper(method) + "\n" + path + "\n" + timestamp + "\n" + hex.EncodeToString(digest[:])
}

// SignatureAt computes the signature for an explicit timestamp. It is the
// deterministic primitive under Sign and Verify.
func (m *AuthManager) SignatureAt(method, path, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(m.secretKey))
	mac.Write([]byte(canonicalString(method, path, timestamp, body)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Sign produces the header set for one outgoing request: API key, fresh
// timestamp, signature and a correlation request id.
func (m *AuthManager) Sign(method, path string, body []byte) map[string]string {
	ts := strconv.FormatInt(m.now().Unix(), 10)
	return map[string]string{
		HeaderAPIKey:    m.apiKey,
		HeaderTimestamp: ts,
		HeaderSignature: m.SignatureAt(method, path, ts, body),
		HeaderRequestID: uuid.NewString(),
	}
}

// Verify recomputes the signature for the given facts and compares it in
// constant time. Used by the backend side of the exchange.
func (m *AuthManager) Verify(method, path, timestamp string, body []byte, signature string) bool {
	expected := m.SignatureAt(method, path, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
