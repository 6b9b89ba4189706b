// Package apperr holds the error classes shared by the command pipeline and
// the fixed messages each class is reported to users with.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a required value is absent or blank.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidDefinition is returned when a command descriptor is structurally invalid.
	ErrInvalidDefinition = errors.New("invalid command definition")

	// ErrRequestCanceled is returned when an awaited operation was canceled.
	ErrRequestCanceled = errors.New("request canceled")

	// ErrUpstreamFailure is matched by every *UpstreamError.
	ErrUpstreamFailure = errors.New("upstream failure")

	// ErrNoParameter is returned by commands invoked without their required parameter.
	ErrNoParameter = errors.New("no parameter passed")
)

// User-facing message templates. They never overlap so a reply can be traced
// back to the error class that produced it.
const (
	MsgNoParameter = "No parameter passed."
	MsgCanceled    = "Request/Command has been canceled. Sorry :("
	MsgUnexpected  = "An unexpected error occurred. Please contact the bot administrator."
)

// UpstreamError carries the reason reported by the external gateway.
type UpstreamError struct {
	Reason string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream failure: %s", e.Reason)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamFailure
}

// Upstream wraps a gateway failure reason.
func Upstream(reason string) error {
	return &UpstreamError{Reason: reason}
}

// UserMessage maps err to the text shown to the user. Upstream reasons are
// surfaced verbatim; anything unclassified gets the generic message.
func UserMessage(err error) string {
	var upstream *UpstreamError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoParameter):
		return MsgNoParameter
	case errors.Is(err, ErrRequestCanceled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return MsgCanceled
	case errors.As(err, &upstream):
		return upstream.Reason
	default:
		return MsgUnexpected
	}
}

// Expected reports whether err belongs to a class that is reported to the
// user as-is rather than logged as an internal failure.
func Expected(err error) bool {
	return errors.Is(err, ErrNoParameter) ||
		errors.Is(err, ErrRequestCanceled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrUpstreamFailure)
}
