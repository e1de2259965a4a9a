// Package apperror classifies the error kinds that cross component
// boundaries so callers can branch with errors.Is instead of string
// matching. See the error handling design: every kind here is contained at
// the per-unit boundary (team, group, event, stream) and never reaches a
// caller as a panic.
package apperror

import "errors"

var (
	// ErrProviderUnavailable marks a transient network or rate-limit
	// failure that was retried to exhaustion.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrMalformedPayload marks a provider response that could not be
	// parsed into canonical form.
	ErrMalformedPayload = errors.New("malformed provider payload")

	// ErrMissingContext marks absent data needed to resolve a template
	// variable or a stream match; never propagated, always degrades to
	// an empty string or no-match.
	ErrMissingContext = errors.New("missing context data")

	// ErrInvalidPattern marks a user-supplied detection keyword pattern
	// that failed to compile.
	ErrInvalidPattern = errors.New("invalid detection pattern")

	// ErrDownstreamUnavailable marks a failed call to the downstream
	// channel manager; the intended change is recorded locally for the
	// next reconciliation pass.
	ErrDownstreamUnavailable = errors.New("downstream manager unavailable")

	// ErrCacheUnavailable marks a cache backend failure; treated as a
	// miss by callers, never as a hard error.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrConflict marks a duplicate-key violation surfaced to the HTTP
	// boundary as 409.
	ErrConflict = errors.New("conflict")
)

// Kind returns the sentinel this error wraps, or nil if none matches.
func Kind(err error) error {
	for _, k := range []error{
		ErrProviderUnavailable,
		ErrMalformedPayload,
		ErrMissingContext,
		ErrInvalidPattern,
		ErrDownstreamUnavailable,
		ErrCacheUnavailable,
		ErrConflict,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
