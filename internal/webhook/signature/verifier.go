// Package signature implements verification of provider webhook signatures.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	webhookDomain "github.com/lunastra/payments/internal/webhook/domain"
)

// Verifier checks that a raw webhook payload was produced by the expected
// sender. Implementations must operate on the unparsed request bytes.
type Verifier interface {
	Verify(payload []byte, header string) error
}

// StripeVerifier verifies signatures in the Stripe webhook scheme: the header
// carries a signed unix timestamp and one or more HMAC-SHA256 signatures
// computed over "<timestamp>.<payload>" with the endpoint's signing secret.
type StripeVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewStripeVerifier creates a StripeVerifier with the given signing secret and
// timestamp tolerance window. An empty secret is accepted; verification then
// fails for every request, which is the safe default when the secret is not
// configured.
func NewStripeVerifier(secret string, tolerance time.Duration) *StripeVerifier {
	return &StripeVerifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Verify checks the signature header against the raw payload bytes.
// Returns ErrSignatureExpired when the signed timestamp falls outside the
// tolerance window and ErrSignatureInvalid for any malformed or mismatched
// signature.
func (v *StripeVerifier) Verify(payload []byte, header string) error {
	if header == "" {
		return webhookDomain.ErrMissingSignature
	}
	if len(v.secret) == 0 {
		return webhookDomain.ErrSignatureInvalid
	}

	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return webhookDomain.ErrSignatureInvalid
	}

	if v.tolerance > 0 {
		signedAt := time.Unix(timestamp, 0)
		if diff := v.now().Sub(signedAt); diff > v.tolerance || diff < -v.tolerance {
			return webhookDomain.ErrSignatureExpired
		}
	}

	expected := v.computeSignature(timestamp, payload)
	for _, sig := range signatures {
		if hmac.Equal(sig, expected) {
			return nil
		}
	}

	return webhookDomain.ErrSignatureInvalid
}

// computeSignature calculates HMAC-SHA256 over "<timestamp>.<payload>".
func (v *StripeVerifier) computeSignature(timestamp int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return mac.Sum(nil)
}

// parseSignatureHeader extracts the timestamp and v1 signatures from a header
// of the form "t=<unix>,v1=<hex>[,v1=<hex>...]". Unknown schemes are skipped
// so the provider can roll new signature versions without breaking older
// endpoints.
func parseSignatureHeader(header string) (int64, [][]byte, error) {
	var timestamp int64
	var signatures [][]byte
	haveTimestamp := false

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return 0, nil, fmt.Errorf("malformed signature header element: %q", part)
		}

		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("malformed signature timestamp: %w", err)
			}
			timestamp = ts
			haveTimestamp = true
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				return 0, nil, fmt.Errorf("malformed signature value: %w", err)
			}
			signatures = append(signatures, sig)
		}
	}

	if !haveTimestamp || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("signature header missing timestamp or v1 signature")
	}

	return timestamp, signatures, nil
}
