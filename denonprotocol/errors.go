package denonprotocol

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNoPlayers indicates the device reported an empty player list.
	ErrNoPlayers = errors.New("no players were returned from heos")

	// ErrReaderStopped indicates the shell's background reader stopped
	// because the device side of the connection failed or closed.
	ErrReaderStopped = errors.New("device output reader stopped")

	// ErrClosed indicates the session manager was already closed.
	ErrClosed = errors.New("sessions closed")
)

// ParseError represents an error that occurred while parsing user input.
type ParseError struct {
	Kind    ParseErrorKind
	Value   string // The invalid value that caused the error
	Message string // Additional context
}

// ParseErrorKind categorizes parsing errors.
type ParseErrorKind int

const (
	// ErrKindInvalidInput indicates an unknown input source name.
	ErrKindInvalidInput ParseErrorKind = iota
	// ErrKindInvalidHEOSCommand indicates a line that is not a heos:// URL.
	ErrKindInvalidHEOSCommand
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrKindInvalidInput:
		return fmt.Sprintf("invalid input '%s'", e.Value)
	case ErrKindInvalidHEOSCommand:
		if e.Message != "" {
			return fmt.Sprintf("invalid heos command '%s': %s", e.Value, e.Message)
		}
		return fmt.Sprintf("invalid heos command '%s'", e.Value)
	default:
		return fmt.Sprintf("parse error: %s", e.Value)
	}
}

func newInvalidInputError(name string) error {
	return &ParseError{Kind: ErrKindInvalidInput, Value: name}
}

func newInvalidHEOSCommandError(line, msg string) error {
	return &ParseError{Kind: ErrKindInvalidHEOSCommand, Value: line, Message: msg}
}

// ConnectionError represents a connection-related error: a failed dial or
// a failed read or write on an established session.
type ConnectionError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connection failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("connection failed: %s", e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a new connection error.
func NewConnectionError(message string, cause error) error {
	return &ConnectionError{Message: message, Cause: cause}
}

// DecodeError reports malformed JSON or a reply whose shape does not match
// the expected envelope.
type DecodeError struct {
	Command string // Request path the reply was decoded for
	Cause   error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("decode %s response: %v", e.Command, e.Cause)
	}
	return fmt.Sprintf("decode response: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// ProtocolError is a well-formed HEOS reply whose result is fail.
type ProtocolError struct {
	Command string
	Message string // Raw message from the envelope header
	EID     string // Device error id, if reported
	Text    string // Device error text, if reported
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	switch {
	case e.Text != "" && e.EID != "":
		return fmt.Sprintf("heos %s failed: %s (eid %s)", e.Command, e.Text, e.EID)
	case e.Message != "":
		return fmt.Sprintf("heos %s failed: %s", e.Command, e.Message)
	default:
		return fmt.Sprintf("heos %s failed", e.Command)
	}
}

func newProtocolError(h Header) error {
	fields := h.Fields()
	return &ProtocolError{
		Command: h.Command,
		Message: h.Message,
		EID:     fields["eid"],
		Text:    fields["text"],
	}
}

// NotFoundError reports that a required entity was absent from a reply.
type NotFoundError struct {
	What  string
	Cause error
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s not found: %v", e.What, e.Cause)
	}
	return fmt.Sprintf("%s not found", e.What)
}

// Unwrap returns the underlying cause.
func (e *NotFoundError) Unwrap() error {
	return e.Cause
}
