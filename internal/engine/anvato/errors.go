package anvato

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed library call.
type ErrorKind int

const (
	KindMissingSettings ErrorKind = iota + 1
	KindTransport
	KindAPI
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingSettings:
		return "missing_required_settings"
	case KindTransport:
		return "request_unsuccessful"
	case KindAPI:
		return "api_error"
	case KindParse:
		return "parse_error"
	}
	return "unknown"
}

// Sentinels for errors.Is; an *Error matches the sentinel of its Kind.
var (
	ErrMissingSettings = &Error{Kind: KindMissingSettings, Message: "The MCP URL, Public Key, and Private Key settings are required."}
	ErrTransport       = &Error{Kind: KindTransport, Message: "There was an error contacting Anvato."}
	ErrAPI             = &Error{Kind: KindAPI, Message: "Anvato responded with an error."}
	ErrParse           = &Error{Kind: KindParse, Message: "There was an error processing the search results."}
)

// noErrorMessage is used when a failure response carries no comment. Intentionally lowercase.
const noErrorMessage = "no error message provided"

// Error is the failure value returned by every library call.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of err, or 0 when err is not a library error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func transportError(cause error) *Error {
	return &Error{Kind: KindTransport, Message: ErrTransport.Message, Err: cause}
}

func parseError(cause error) *Error {
	return &Error{Kind: KindParse, Message: ErrParse.Message, Err: cause}
}

// apiError formats the vendor comment the way editors see it: quoted, or the fallback.
func apiError(comment string) *Error {
	detail := noErrorMessage
	if comment != "" {
		detail = `"` + comment + `"`
	}
	return &Error{Kind: KindAPI, Message: fmt.Sprintf("Anvato responded with an error (%s).", detail)}
}
