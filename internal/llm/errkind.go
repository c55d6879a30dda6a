package llm

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/sorriso/simplehybridchat/internal/apperr"
)

// ErrKind is the closed internal error taxonomy for LLM provider
// failures (spec.md §4.3/§7), mapped to apperr.Kind at the service
// boundary, never inside an adapter.
type ErrKind string

const (
	ErrAuthentication ErrKind = "authentication"
	ErrModelNotFound  ErrKind = "model_not_found"
	ErrRateLimit      ErrKind = "rate_limit"
	ErrContextLength  ErrKind = "context_length"
	ErrInvalidRequest ErrKind = "invalid_request"
	ErrTimeout        ErrKind = "timeout"
	ErrStreaming      ErrKind = "streaming"
	ErrConnection     ErrKind = "connection"
)

// ProviderError wraps a classified provider failure.
type ProviderError struct {
	Kind    ErrKind
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ClassifyHTTPError maps a provider HTTP status and response body to
// the closed ErrKind taxonomy, per spec.md §4.3's status table. Used
// by every cloud adapter so the mapping lives in one place.
func ClassifyHTTPError(status int, body []byte) ErrKind {
	switch status {
	case 401, 403:
		return ErrAuthentication
	case 404:
		return ErrModelNotFound
	case 429:
		return ErrRateLimit
	case 400:
		if looksLikeContextLengthError(body) {
			return ErrContextLength
		}
		return ErrInvalidRequest
	default:
		if status >= 500 {
			return ErrStreaming
		}
		return ErrInvalidRequest
	}
}

func looksLikeContextLengthError(body []byte) bool {
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "context_length") ||
		strings.Contains(lower, "maximum context length") ||
		strings.Contains(lower, "too many tokens") ||
		strings.Contains(lower, "context window")
}

// statusInError matches the "status %d" / "status code %d" shape every
// HTTP-backed SDK in the example pack formats its error strings with
// (e.g. "API error (status 429): rate limited").
var statusInError = regexp.MustCompile(`status(?: code)?[^\d]{0,4}(\d{3})`)

// ClassifyProviderError turns an arbitrary error returned by an
// underlying provider SDK into a *ProviderError, recovering an HTTP
// status code embedded in the error text where one is present and
// running it through ClassifyHTTPError, the same status-driven
// classification original_source's adapters perform directly against
// the HTTP response. message identifies the adapter/call site.
func ClassifyProviderError(err error, message string) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Kind: ErrTimeout, Message: message, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ProviderError{Kind: ErrConnection, Message: message, Err: err}
	}
	text := err.Error()
	if m := statusInError.FindStringSubmatch(text); m != nil {
		if status, convErr := strconv.Atoi(m[1]); convErr == nil {
			return &ProviderError{Kind: ClassifyHTTPError(status, []byte(text)), Message: message, Err: err}
		}
	}
	return &ProviderError{Kind: ErrStreaming, Message: message, Err: err}
}

// appErrKind maps a ProviderError's ErrKind to the apperr.Kind its
// HTTP status should surface as, per spec.md §7's pre-stream error
// propagation policy.
func appErrKind(kind ErrKind) apperr.Kind {
	switch kind {
	case ErrAuthentication:
		return apperr.Unauthorized
	case ErrModelNotFound:
		return apperr.NotFound
	case ErrRateLimit:
		return apperr.TooManyRequests
	case ErrContextLength, ErrInvalidRequest:
		return apperr.BadRequest
	case ErrTimeout, ErrConnection, ErrStreaming:
		return apperr.ServiceUnavailable
	default:
		return apperr.Internal
	}
}

// ToAppErr converts any error into an *apperr.Error for the HTTP
// boundary, translating a *ProviderError's ErrKind when present and
// otherwise defaulting to Internal. Call this at the point a
// provider-originated error crosses into chatengine/server, before any
// SSE bytes are written — once streaming has begun, a provider failure
// is relayed as an in-band SSE error frame instead.
func ToAppErr(err error) *apperr.Error {
	if err == nil {
		return nil
	}
	var aerr *apperr.Error
	if errors.As(err, &aerr) {
		return aerr
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return apperr.Wrap(appErrKind(perr.Kind), perr.Message, err)
	}
	return apperr.Wrap(apperr.Internal, "provider error", err)
}
