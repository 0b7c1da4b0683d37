package imagegate

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Kind is a stable tag identifying the class of a gateway failure.
// Callers map it to transport status codes without parsing messages.
type Kind string

const (
	KindInvalidPrompt         Kind = "invalid_prompt"
	KindProviderNotFound      Kind = "provider_not_found"
	KindProviderNotConfigured Kind = "provider_not_configured"
	KindUnsupportedOperation  Kind = "unsupported_operation"
	KindNoProvidersConfigured Kind = "no_providers_configured"
	KindProviderError         Kind = "provider_error"
	KindAllProvidersFailed    Kind = "all_providers_failed"
	KindPollTimedOut          Kind = "poll_timed_out"
	KindPollCancelled         Kind = "poll_cancelled"
	KindCancelled             Kind = "cancelled"
)

// kindError is a payload-free sentinel carrying a Kind.
type kindError struct {
	kind Kind
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Kind() Kind    { return e.kind }

// Sentinel errors. Call sites wrap them with detail using %w.
var (
	ErrInvalidPrompt         error = &kindError{KindInvalidPrompt, "invalid prompt"}
	ErrProviderNotFound      error = &kindError{KindProviderNotFound, "provider not found"}
	ErrProviderNotConfigured error = &kindError{KindProviderNotConfigured, "provider not configured"}
	ErrUnsupportedOperation  error = &kindError{KindUnsupportedOperation, "unsupported operation"}
	ErrNoProvidersConfigured error = &kindError{KindNoProvidersConfigured, "no providers configured"}
	ErrPollTimedOut          error = &kindError{KindPollTimedOut, "timed out waiting for job"}
	ErrPollCancelled         error = &kindError{KindPollCancelled, "polling cancelled"}
	ErrCancelled             error = &kindError{KindCancelled, "generation cancelled"}
)

// ErrEmptyResult is the cause recorded when a provider reports success without an image URL.
var ErrEmptyResult = errors.New("response contained no image URL")

// ErrJobFailed is the cause recorded when an asynchronous job reports failure.
var ErrJobFailed = errors.New("job failed")

type kinded interface {
	Kind() Kind
}

// KindOf returns the kind of the outermost tagged error in err's chain,
// or the empty Kind if err carries none.
func KindOf(err error) Kind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}

// ProviderError reports a failure of a single provider.
type ProviderError struct {
	Provider ProviderName
	Cause    error
}

// NewProviderError wraps cause for provider p. A cause that already is a
// ProviderError for the same provider is returned unchanged.
func NewProviderError(p ProviderName, cause error) *ProviderError {
	var pe *ProviderError
	if errors.As(cause, &pe) && pe.Provider == p {
		return pe
	}
	return &ProviderError{Provider: p, Cause: cause}
}

// Error names the provider and its cause.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed: %v", e.Provider, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }
func (e *ProviderError) Kind() Kind    { return KindProviderError }

// AttemptError records one failed attempt during fan-out.
type AttemptError struct {
	Provider ProviderName
	Err      error
}

// Error renders the provider and the failure reason without repeating the provider name.
func (e AttemptError) Error() string {
	cause := e.Err
	var pe *ProviderError
	if errors.As(cause, &pe) && pe.Provider == e.Provider {
		cause = pe.Cause
	}
	return fmt.Sprintf("%s: %v", e.Provider, cause)
}

func (e AttemptError) Unwrap() error { return e.Err }

// AllProvidersFailedError is returned when every fan-out candidate failed.
// Attempts are kept in the order they were tried.
type AllProvidersFailedError struct {
	Attempts []AttemptError
}

// Error enumerates every attempted provider and its cause.
func (e *AllProvidersFailedError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Error()
	}
	return "all providers failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes every attempt error to errors.Is and errors.As.
func (e *AllProvidersFailedError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a
	}
	return errs
}

func (e *AllProvidersFailedError) Kind() Kind { return KindAllProvidersFailed }

// PollError is returned by the job poller when a job does not complete.
// Err is one of ErrPollTimedOut, ErrPollCancelled or ErrJobFailed.
type PollError struct {
	JobID    string
	Attempts int
	Reason   string
	Err      error
	// Cause is the underlying error, e.g. the context error or the last tick failure.
	Cause error
}

func (e *PollError) Error() string {
	msg := fmt.Sprintf("job %s: %v after %d attempt(s)", e.JobID, e.Err, e.Attempts)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (%v)", e.Cause)
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *PollError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// Kind maps the poll outcome to its error kind. Job failures are provider errors.
func (e *PollError) Kind() Kind {
	switch {
	case errors.Is(e.Err, ErrPollTimedOut):
		return KindPollTimedOut
	case errors.Is(e.Err, ErrPollCancelled):
		return KindPollCancelled
	default:
		return KindProviderError
	}
}

// ErrorCategory classifies transport errors by how they should be handled.
type ErrorCategory string

const (
	// ErrorTransient indicates the error is temporary, e.g. rate limits or an overloaded upstream.
	ErrorTransient ErrorCategory = "transient"

	// ErrorPermanent indicates the error is not recoverable, e.g. an invalid or expired API key.
	ErrorPermanent ErrorCategory = "permanent"

	// ErrorUserInput indicates the request itself was rejected, e.g. a content policy violation.
	ErrorUserInput ErrorCategory = "user_input"
)

// CategorizedError is an error that provides information about how it should be handled.
type CategorizedError interface {
	error
	Category() ErrorCategory
	Retryable() bool           // convenience: returns true if Category == ErrorTransient
	StatusCode() int           // HTTP status code if applicable, 0 otherwise
	RetryAfter() time.Duration // suggested retry delay from server, 0 if not available
}

// Error is a categorized transport error with metadata for error handling decisions.
type Error struct {
	Msg        string
	Cat        ErrorCategory
	Code       int           // HTTP status code, 0 if not applicable
	RetryDelay time.Duration // from Retry-After header, 0 if not available
	Cause      error         // underlying error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Category returns the error category.
func (e *Error) Category() ErrorCategory {
	return e.Cat
}

// Retryable returns true if the error is transient.
func (e *Error) Retryable() bool {
	return e.Cat == ErrorTransient
}

// StatusCode returns the HTTP status code, or 0 if not applicable.
func (e *Error) StatusCode() int {
	return e.Code
}

// RetryAfter returns the suggested retry delay, or 0 if not available.
func (e *Error) RetryAfter() time.Duration {
	return e.RetryDelay
}

// NewTransientError creates a transient error.
func NewTransientError(msg string, statusCode int, cause error) *Error {
	return &Error{
		Msg:   msg,
		Cat:   ErrorTransient,
		Code:  statusCode,
		Cause: cause,
	}
}

// NewTransientErrorWithRetry creates a transient error with a suggested retry delay.
func NewTransientErrorWithRetry(msg string, statusCode int, retryAfter time.Duration, cause error) *Error {
	return &Error{
		Msg:        msg,
		Cat:        ErrorTransient,
		Code:       statusCode,
		RetryDelay: retryAfter,
		Cause:      cause,
	}
}

// NewPermanentError creates a permanent error.
func NewPermanentError(msg string, statusCode int, cause error) *Error {
	return &Error{
		Msg:   msg,
		Cat:   ErrorPermanent,
		Code:  statusCode,
		Cause: cause,
	}
}

// NewUserInputError creates an error indicating the request was rejected as invalid.
func NewUserInputError(msg string, statusCode int, cause error) *Error {
	return &Error{
		Msg:   msg,
		Cat:   ErrorUserInput,
		Code:  statusCode,
		Cause: cause,
	}
}

// CategorizeStatusCode determines the error category from an HTTP status code.
func CategorizeStatusCode(code int) ErrorCategory {
	switch {
	case code == 429:
		return ErrorTransient // Rate limited
	case code >= 500 && code < 600:
		return ErrorTransient // Server error
	case code == 401 || code == 403:
		return ErrorPermanent // Authentication/authorization
	case code == 400 || code == 404 || code == 422:
		return ErrorUserInput // Bad request or not found
	default:
		return ErrorPermanent
	}
}

// NewStatusError creates an error categorized from an HTTP status code.
func NewStatusError(msg string, statusCode int, cause error) *Error {
	return &Error{
		Msg:   msg,
		Cat:   CategorizeStatusCode(statusCode),
		Code:  statusCode,
		Cause: cause,
	}
}

// NewStatusErrorWithRetry is NewStatusError carrying a server supplied retry delay.
func NewStatusErrorWithRetry(msg string, statusCode int, retryAfter time.Duration, cause error) *Error {
	e := NewStatusError(msg, statusCode, cause)
	e.RetryDelay = retryAfter
	return e
}

// ParseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
// Returns 0 if the header is absent, malformed or already in the past.
func ParseRetryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// IsTransient returns true if the error or any wrapped error is categorized as transient.
func IsTransient(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorTransient
	}
	return false
}

// IsPermanent returns true if the error or any wrapped error is categorized as permanent.
func IsPermanent(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorPermanent
	}
	return false
}

// IsUserInput returns true if the error or any wrapped error is categorized as user input error.
func IsUserInput(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorUserInput
	}
	return false
}

// StatusCodeOf returns the HTTP status code from a categorized error, or 0.
func StatusCodeOf(err error) int {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.StatusCode()
	}
	return 0
}

// RetryAfterOf returns the retry delay from a categorized error, or 0.
func RetryAfterOf(err error) time.Duration {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.RetryAfter()
	}
	return 0
}

// ImageError represents an error while processing an input image.
type ImageError struct {
	Op  string // "decode" or "fetch"
	URL string // the image URL or "base64"
	Err error  // underlying error
}

// Error returns a formatted error message describing the image processing failure.
func (e *ImageError) Error() string {
	return fmt.Sprintf("image %s error for %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ImageError) Unwrap() error {
	return e.Err
}
