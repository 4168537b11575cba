// Package webhook authenticates and routes upstream push notifications.
package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// Verification checks, used as VerificationFailure.Check.
const (
	CheckHandshake = "handshake"
	CheckSignature = "signature"
)

// HandshakeMismatch is the payload returned when a subscription handshake
// is rejected.
const HandshakeMismatch = "verification tokens does not match"

// VerificationFailure rejects an inbound request before any processing.
type VerificationFailure struct {
	Check  string
	Reason string
}

func (e *VerificationFailure) Error() string {
	return fmt.Sprintf("webhook %s verification failed: %s", e.Check, e.Reason)
}

var digests = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha224": sha256.New224,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// Verifier holds the shared secrets for both checks.
type Verifier struct {
	verifyToken string
	secret      []byte
}

func NewVerifier(verifyToken, secret string) *Verifier {
	return &Verifier{verifyToken: verifyToken, secret: []byte(secret)}
}

// Handshake answers a subscription validation request. It returns the
// challenge to echo back only when mode is "subscribe" and token matches.
func (v *Verifier) Handshake(mode, token, challenge string) (string, error) {
	if mode != "subscribe" {
		return "", &VerificationFailure{Check: CheckHandshake, Reason: "unexpected hub.mode"}
	}
	if v.verifyToken == "" || !hmac.Equal([]byte(token), []byte(v.verifyToken)) {
		return "", &VerificationFailure{Check: CheckHandshake, Reason: "verify token mismatch"}
	}
	return challenge, nil
}

// VerifySignature checks a header of the form "algorithm=hexdigest" against
// an HMAC of the raw body.
func (v *Verifier) VerifySignature(header string, body []byte) error {
	algorithm, digest, ok := strings.Cut(strings.TrimSpace(header), "=")
	if !ok || digest == "" {
		return &VerificationFailure{Check: CheckSignature, Reason: "malformed signature header"}
	}
	newHash, ok := digests[strings.ToLower(algorithm)]
	if !ok {
		return &VerificationFailure{Check: CheckSignature, Reason: "unsupported algorithm " + algorithm}
	}
	provided, err := hex.DecodeString(digest)
	if err != nil {
		return &VerificationFailure{Check: CheckSignature, Reason: "digest is not hex"}
	}

	mac := hmac.New(newHash, v.secret)
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), provided) {
		return &VerificationFailure{Check: CheckSignature, Reason: "digest mismatch"}
	}
	return nil
}
