// Package session implements the signed-cookie session envelope: an
// HMAC-SHA256-authenticated, base64-encoded JSON payload. It follows
// the jwt_utils.py sign/verify functions (serialize_json/
// create_signature/load_session) it was ported from, rendered with a
// constant-time signature comparison.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/raynardj/readly/internal/logger"
)

// Values is the session mapping a handler observes and mutates: a JSON
// object from string keys to arbitrary JSON-serializable values.
type Values map[string]interface{}

// Envelope signs and verifies the wire form of a session cookie for one
// server secret.
type Envelope struct {
	secret []byte
	log    *logger.Logger
}

// New builds an Envelope keyed by secret. The secret is never logged.
func New(secret []byte, log *logger.Logger) *Envelope {
	if log == nil {
		log = logger.Default
	}
	return &Envelope{secret: secret, log: log}
}

// Sign returns the lowercase-hex HMAC-SHA256 of payload under the envelope's
// secret.
func (e *Envelope) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, e.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the correct MAC for payload, in
// constant time.
func (e *Envelope) Verify(payload []byte, signature string) bool {
	expected := e.Sign(payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Encode renders values as "<base64 payload>.<hex signature>".
func (e *Envelope) Encode(values Values) (string, error) {
	if values == nil {
		values = Values{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	payload := base64.StdEncoding.EncodeToString(data)
	sig := e.Sign([]byte(payload))
	return payload + "." + sig, nil
}

// Decode parses and verifies an envelope string. Any malformed shape —
// missing dot, bad base64, bad signature, non-JSON payload — yields an
// empty Values and is never reported as an error.
func (e *Envelope) Decode(envelope string) Values {
	if envelope == "" {
		return Values{}
	}

	payload, sig, ok := strings.Cut(envelope, ".")
	if !ok {
		return Values{}
	}

	if !e.Verify([]byte(payload), sig) {
		e.log.Debug("session signature mismatch")
		return Values{}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		e.log.Debug("session payload not valid base64")
		return Values{}
	}

	var values Values
	if err := json.Unmarshal(data, &values); err != nil {
		e.log.Debug("session payload not valid JSON")
		return Values{}
	}
	if values == nil {
		values = Values{}
	}
	return values
}
