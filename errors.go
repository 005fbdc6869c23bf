package hafas

import (
	"errors"
	"fmt"

	"github.com/jamespfennell/hafas/wire"
)

// ErrorKind classifies structural decode errors.
//
// A structural error means the response does not match the expected layout. It aborts
// the whole decode; no trips are returned alongside it.
type ErrorKind int32

const (
	ErrorKind_Unknown              ErrorKind = 0
	ErrorKind_UnsupportedVersion   ErrorKind = 1
	ErrorKind_UnexpectedEndOfData  ErrorKind = 2
	ErrorKind_OutOfRangeIndex      ErrorKind = 3
	ErrorKind_UnknownLegType       ErrorKind = 4
	ErrorKind_MissingRequiredField ErrorKind = 5
	ErrorKind_InvalidValue         ErrorKind = 6
	ErrorKind_LocationMismatch     ErrorKind = 7
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKind_UnsupportedVersion:
		return "unsupported version"
	case ErrorKind_UnexpectedEndOfData:
		return "unexpected end of data"
	case ErrorKind_OutOfRangeIndex:
		return "index out of range"
	case ErrorKind_UnknownLegType:
		return "unknown leg type"
	case ErrorKind_MissingRequiredField:
		return "missing required field"
	case ErrorKind_InvalidValue:
		return "invalid value"
	case ErrorKind_LocationMismatch:
		return "location mismatch"
	default:
		return "decode error"
	}
}

type DecodeError struct {
	Kind ErrorKind
	// Context locates the error, e.g. "trip 2 leg 1: arrival station".
	Context string
	Err     error
}

// Sentinels for use with errors.Is; they match any DecodeError of the same kind.
var (
	ErrUnsupportedVersion   = &DecodeError{Kind: ErrorKind_UnsupportedVersion}
	ErrUnexpectedEndOfData  = &DecodeError{Kind: ErrorKind_UnexpectedEndOfData}
	ErrOutOfRangeIndex      = &DecodeError{Kind: ErrorKind_OutOfRangeIndex}
	ErrUnknownLegType       = &DecodeError{Kind: ErrorKind_UnknownLegType}
	ErrMissingRequiredField = &DecodeError{Kind: ErrorKind_MissingRequiredField}
	ErrInvalidValue         = &DecodeError{Kind: ErrorKind_InvalidValue}
	ErrLocationMismatch     = &DecodeError{Kind: ErrorKind_LocationMismatch}
)

func (e *DecodeError) Error() string {
	switch {
	case e.Context != "" && e.Err != nil:
		return fmt.Sprintf("hafas: %s: %s: %s", e.Kind, e.Context, e.Err)
	case e.Context != "":
		return fmt.Sprintf("hafas: %s: %s", e.Kind, e.Context)
	case e.Err != nil:
		return fmt.Sprintf("hafas: %s: %s", e.Kind, e.Err)
	}
	return "hafas: " + e.Kind.String()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	return ok && t.Kind == e.Kind && t.Context == "" && t.Err == nil
}

func newDecodeError(kind ErrorKind, context string, a ...any) *DecodeError {
	return &DecodeError{Kind: kind, Context: fmt.Sprintf(context, a...)}
}

// wrapError turns an error from the wire or tables packages into a DecodeError,
// prefixing the location. Existing DecodeErrors keep their kind.
func wrapError(err error, context string, a ...any) error {
	if err == nil {
		return nil
	}
	location := fmt.Sprintf(context, a...)
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		c := *decodeErr
		if c.Context == "" {
			c.Context = location
		} else {
			c.Context = location + ": " + c.Context
		}
		return &c
	}
	kind := ErrorKind_InvalidValue
	switch {
	case errors.Is(err, wire.ErrUnexpectedEndOfData):
		kind = ErrorKind_UnexpectedEndOfData
	case errors.Is(err, wire.ErrOutOfRange):
		kind = ErrorKind_OutOfRangeIndex
	}
	return &DecodeError{Kind: kind, Context: location, Err: err}
}
