package webhook

import "errors"

// Domain-specific errors for the webhook package.
var (
	ErrInvalidSignature  = errors.New("signature verification failed")
	ErrSecretNotSet      = errors.New("webhook secret not configured")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)
