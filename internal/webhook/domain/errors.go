package domain

import (
	"github.com/lunastra/payments/internal/errors"
)

// Domain-specific errors for webhook processing.
var (
	// ErrMissingSignature indicates the signature header was absent from the request.
	ErrMissingSignature = errors.Wrap(errors.ErrUnauthorized, "missing signature header")

	// ErrSignatureInvalid indicates the signature did not match the request body.
	ErrSignatureInvalid = errors.Wrap(errors.ErrUnauthorized, "signature verification failed")

	// ErrSignatureExpired indicates the signed timestamp fell outside the tolerance window.
	ErrSignatureExpired = errors.Wrap(errors.ErrUnauthorized, "signature timestamp outside tolerance")
)
