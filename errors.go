package xbeeio

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	NoError ErrorKind = iota
	// ResponseTimeout is returned when no frame carrying the request's frame ID arrived in time.
	ResponseTimeout
	// UnknownError is status 0x01.
	UnknownError
	// InvalidCommand is status 0x02.
	InvalidCommand
	// InvalidParameter is status 0x03.
	InvalidParameter
	// TxFailure is status 0x04, the local radio could not reach the remote radio, usually because it is
	// out of range or switched off.
	TxFailure
	// UnknownStatus is any other non-zero status, firmware codes we have no name for are surfaced rather
	// than treated as success.
	UnknownStatus
	// PinNotConfigured is returned when a sample does not contain the requested channel, the pin's mode
	// on the device does not match the role it was configured for.
	PinNotConfigured
)

var kindNames = map[ErrorKind]string{
	NoError:          "no error",
	ResponseTimeout:  "response timeout",
	UnknownError:     "unknown error",
	InvalidCommand:   "invalid command",
	InvalidParameter: "invalid parameter",
	TxFailure:        "tx failure",
	UnknownStatus:    "unknown status",
	PinNotConfigured: "pin not configured",
}

func (k ErrorKind) String() string {
	if n, found := kindNames[k]; found {
		return n
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

var statusKinds = map[uint8]ErrorKind{
	0x01: UnknownError,
	0x02: InvalidCommand,
	0x03: InvalidParameter,
	0x04: TxFailure,
}

// Error is the single error type for failed radio commands. Kind drives errors.Is, so callers can test
// against the sentinels below regardless of the command or status carried.
type Error struct {
	Kind    ErrorKind
	Status  uint8
	Command string
	Detail  string
}

func (e *Error) Error() string {
	msg := "xbee: " + e.Kind.String()

	if e.Command != "" {
		msg += " (" + e.Command + ")"
	}

	if e.Kind == UnknownStatus {
		msg += fmt.Sprintf(" status 0x%02x", e.Status)
	}

	if e.Detail != "" {
		msg += ": " + e.Detail
	}

	return msg
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind
}

var (
	ErrResponseTimeout  = &Error{Kind: ResponseTimeout}
	ErrUnknownError     = &Error{Kind: UnknownError}
	ErrInvalidCommand   = &Error{Kind: InvalidCommand}
	ErrInvalidParameter = &Error{Kind: InvalidParameter}
	ErrTxFailure        = &Error{Kind: TxFailure}
	ErrUnknownStatus    = &Error{Kind: UnknownStatus}
	ErrPinNotConfigured = &Error{Kind: PinNotConfigured}
)

var ErrUnknownPin = errors.New("pin index out of range")

// StatusError converts a response status byte into an error, nil for 0x00.
func StatusError(command string, status uint8) error {
	if status == 0x00 {
		return nil
	}

	if kind, found := statusKinds[status]; found {
		return &Error{Kind: kind, Status: status, Command: command}
	}

	return &Error{Kind: UnknownStatus, Status: status, Command: command}
}

// KindOf returns the ErrorKind carried by err, NoError if err is nil or not a radio error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return NoError
}
