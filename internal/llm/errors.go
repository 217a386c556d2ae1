package llm

import (
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// ErrNoCredential is returned when no Anthropic API key is configured.
var ErrNoCredential = errors.New("no Anthropic API key configured")

// ErrRateLimited indicates the provider rejected the request for
// quota or rate reasons. The orchestrator enters a cooldown window
// when it sees this error.
var ErrRateLimited = errors.New("llm provider rate limited")

// ErrCredentialExpired indicates the configured credential was
// rejected by the provider.
var ErrCredentialExpired = errors.New("llm credential expired or invalid")

// classifyErr maps a raw SDK error onto the package sentinels so
// callers can use errors.Is. Unrecognized errors pass through as-is.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 529:
			return errors.Join(ErrRateLimited, err)
		case 401, 403:
			return errors.Join(ErrCredentialExpired, err)
		}
	}

	// Fall back to message inspection for transport-level failures
	// that don't carry a status code.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "quota"),
		strings.Contains(msg, "overloaded"), strings.Contains(msg, "429"):
		return errors.Join(ErrRateLimited, err)
	case strings.Contains(msg, "authentication"), strings.Contains(msg, "invalid x-api-key"),
		strings.Contains(msg, "401"):
		return errors.Join(ErrCredentialExpired, err)
	}
	return err
}

// IsRateLimited reports whether the error is a quota/rate failure.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsCredentialExpired reports whether the error is an auth failure.
func IsCredentialExpired(err error) bool {
	return errors.Is(err, ErrCredentialExpired)
}
