// Package errors classifies relay failures so the boundary layer can decide
// who gets told about them: the chat the update came from, the master admin
// chat, or nobody.
package errors

import (
	"errors"
	"fmt"
)

// Kind tells the boundary layer which side of the conversation an error is
// meant for.
type Kind string

const (
	// KindClient errors carry a message for the chat the update came from.
	KindClient Kind = "CLIENT"
	// KindServer errors are operational failures reported to the master chat.
	KindServer Kind = "SERVER"
)

// Structural errors: limit or invariant violations that are always fatal for
// the operation that hit them.
var (
	// ErrSegmentationImpossible is returned when a message cannot be halved
	// into parts that each fit under the transport limit.
	ErrSegmentationImpossible = errors.New("message impossible to halve under limit")

	// ErrAmbiguousEditTarget is returned when more than one forward record
	// matches an edited source message.
	ErrAmbiguousEditTarget = errors.New("multiple forward records match edit source")
)

// BotError is a classified relay error.
type BotError struct {
	Kind    Kind
	Message string
	Meta    map[string]interface{}
	Silent  bool
	Cause   error
}

func (e *BotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *BotError) Unwrap() error {
	return e.Cause
}

// WithCause attaches an underlying error.
func (e *BotError) WithCause(err error) *BotError {
	e.Cause = err
	return e
}

// Client creates an error whose message is shown to the chat the update came
// from.
func Client(message string) *BotError {
	return &BotError{
		Kind:    KindClient,
		Message: message,
	}
}

// Server creates an operational error reported to the master chat. The meta
// map is attached to the report.
func Server(message string, meta map[string]interface{}) *BotError {
	return &BotError{
		Kind:    KindServer,
		Message: message,
		Meta:    meta,
	}
}

// ServerSilent creates a server error that additionally suppresses the
// generic failure notice normally sent back to the originating chat.
func ServerSilent(message string, meta map[string]interface{}) *BotError {
	return &BotError{
		Kind:    KindServer,
		Message: message,
		Meta:    meta,
		Silent:  true,
	}
}

// KindOf extracts the classification from an error, or "" for unclassified
// errors.
func KindOf(err error) Kind {
	var botErr *BotError
	if errors.As(err, &botErr) {
		return botErr.Kind
	}
	return ""
}

// IsSilent reports whether the originating chat must not receive the generic
// failure notice for this error.
func IsSilent(err error) bool {
	var botErr *BotError
	if errors.As(err, &botErr) {
		return botErr.Silent
	}
	return false
}

// MetaOf extracts attached meta information, or nil.
func MetaOf(err error) map[string]interface{} {
	var botErr *BotError
	if errors.As(err, &botErr) {
		return botErr.Meta
	}
	return nil
}
