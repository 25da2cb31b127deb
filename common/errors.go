// Package common provides the error taxonomy and small helpers shared by every
// scraping backend.
package common

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a failed scrape. The set is closed; every escalated
// failure carries exactly one kind.
type ErrorKind string

const (
	// KindInvalidRequest covers a missing URL, a missing post id in comments
	// mode and other malformed input.
	KindInvalidRequest ErrorKind = "InvalidRequest"

	// KindAuth covers rejected credentials and detected verification challenges.
	KindAuth ErrorKind = "AuthError"

	// KindTargetUnavailable covers navigation failures and readiness timeouts.
	KindTargetUnavailable ErrorKind = "TargetUnavailable"

	// KindExtraction is used when the rendered document cannot produce records at all.
	KindExtraction ErrorKind = "ExtractionError"

	// KindLaunch is used when a browser session could not be created.
	KindLaunch ErrorKind = "LaunchError"

	// KindUpstream is used when a delegated scraping API returned a non-success status.
	KindUpstream ErrorKind = "UpstreamError"
)

// ScrapeError is the typed failure returned across component boundaries.
type ScrapeError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Details returns the human readable cause, or "" when there is none.
func (e *ScrapeError) Details() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// NewError builds a ScrapeError of the given kind.
func NewError(kind ErrorKind, message string, cause error) *ScrapeError {
	return &ScrapeError{Kind: kind, Message: message, Err: cause}
}

// InvalidRequest reports malformed input; it carries no cause.
func InvalidRequest(message string) *ScrapeError {
	return NewError(KindInvalidRequest, message, nil)
}

// AuthError reports a failed or challenged login.
func AuthError(message string, cause error) *ScrapeError {
	return NewError(KindAuth, message, cause)
}

// TargetUnavailable reports a target that could not be reached or rendered.
func TargetUnavailable(message string, cause error) *ScrapeError {
	return NewError(KindTargetUnavailable, message, cause)
}

// ExtractionError reports a document that produced no records at all.
func ExtractionError(message string, cause error) *ScrapeError {
	return NewError(KindExtraction, message, cause)
}

// LaunchError reports a browser session that could not be created.
func LaunchError(message string, cause error) *ScrapeError {
	return NewError(KindLaunch, message, cause)
}

// UpstreamError reports a delegated API failure.
func UpstreamError(message string, cause error) *ScrapeError {
	return NewError(KindUpstream, message, cause)
}

// KindOf reports the kind of err, looking through wrapping. Errors that carry
// no kind are reported as ok == false.
func KindOf(err error) (ErrorKind, bool) {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// AsScrapeError normalises any error into a ScrapeError. Context deadline and
// cancellation become TargetUnavailable; anything else without a kind is
// reported with the fallback kind.
func AsScrapeError(err error, fallback ErrorKind, message string) *ScrapeError {
	if err == nil {
		return nil
	}
	var se *ScrapeError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return TargetUnavailable(message+": timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return TargetUnavailable(message+": cancelled", err)
	}
	return NewError(fallback, message, err)
}
