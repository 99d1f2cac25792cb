package encio

import (
	"errors"
	"runtime"
	"strings"
)

// Error handling in packing is designed to provide an easy way to distinguish io errors and bad data from encoding errors,
// and to reuse a small set of common error kinds for as many errors as possible, with extra information wrapped as applicable.
// Panics are only used when there is a clear misuse of the library; programmer error.
// To this end, all error cases are grouped into two error wrappers; IOError and Error, the idea being that
// IOError errors indicate a bad or short io.Reader/io.Writer, and
// Error errors indicate a value that a Descriptor cannot encode, or data it cannot decode.
//
// In both cases the kind of failure is one of the sentinels below, and can be checked with
//
//	if errors.Is(err, encio.ErrRange) {
//		// value didn't fit its field
//	}
//
// These errors will be wrapped by IOError or Error.
var (
	// ErrTruncated is returned when a source has fewer bytes available than a field requires.
	ErrTruncated = errors.New("truncated input")

	// ErrRange is returned when a logical value (integer, length or count) cannot be represented in its field.
	ErrRange = errors.New("out of range")

	// ErrArity is returned when a struct is encoded with the wrong number of fields.
	ErrArity = errors.New("wrong arity")

	// ErrDuplicateKey is returned by strict map Descriptors when a decoded key has already been seen.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrMalformed is returned when the read data is impossible to decode.
	ErrMalformed = errors.New("malformed")

	// ErrBadType is returned when a value handed to a dynamically typed Descriptor has the wrong Go type.
	ErrBadType = errors.New("bad type")

	// ErrBadConfig is returned when a Descriptor's configuration is unusable,
	// i.e. an integer width of 0.
	ErrBadConfig = errors.New("bad config")
)

// NewIOError returns an IOError wrapping err with the given message.
// err is typically the error returned from the io.Reader/io.Writer, or another error describing why the reader isn't operating correctly.
// message has extra information about the error; if empty, it is filled with the calling function's name.
func NewIOError(err error, message string) error {
	if err == nil {
		return NewError(errors.New("unknown error"), "trying to create new IOError", "encio.NewIOError")
	}
	if message == "" {
		message = "in " + GetCaller(1)
	}

	return &IOError{
		Err:     err,
		Message: message,
	}
}

// IOError is returned when io errors occur, or when the source runs short.
type IOError struct {
	Err     error
	Message string
	Path    []string
}

// Error implements error
func (e *IOError) Error() string {
	var b strings.Builder
	if len(e.Path) > 0 {
		b.WriteString(joinPath(e.Path))
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

// Unwrap implements errors's Unwrap()
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewError returns an Error wrapping err with message and caller.
// If caller is empty, it is automatically filled with the calling function's name.
func NewError(err error, message string, caller string) error {
	if caller == "" {
		caller = GetCaller(1)
	}

	return &Error{
		Err:     err,
		Message: message,
		Caller:  caller,
	}
}

// Error is returned when a value cannot be encoded, or decoded data breaks a Descriptor's contract.
type Error struct {
	Err     error
	Message string
	Caller  string

	// Path locates the failing Descriptor inside its enclosing composites, outermost first.
	Path []string
}

// Error implements error
func (e *Error) Error() (str string) {
	if e.Caller != "" {
		str = e.Caller + ": "
	}

	if len(e.Path) > 0 {
		str += joinPath(e.Path) + ": "
	}

	str += e.Err.Error()

	if e.Message != "" {
		str += " (" + e.Message + ")"
	}

	return str
}

// Unwrap implements errors's Unwrap()
func (e *Error) Unwrap() error {
	return e.Err
}

// AtPath prefixes elem to the Path of err, if err is an Error or IOError.
// Composite Descriptors call it as errors propagate outwards so the final error names the failing field.
// Other errors are returned unchanged.
func AtPath(err error, elem string) error {
	var encErr *Error
	if errors.As(err, &encErr) {
		encErr.Path = append([]string{elem}, encErr.Path...)
		return err
	}

	var ioErr *IOError
	if errors.As(err, &ioErr) {
		ioErr.Path = append([]string{elem}, ioErr.Path...)
	}
	return err
}

func joinPath(path []string) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

// GetCaller returns the name of the calling function, skipping skip functions.
// i.e. 0 writes the calling function, 1 the function calling that etc...
func GetCaller(skip int) string {
	pcs := make([]uintptr, 1)
	n := runtime.Callers(2+skip, pcs)
	if n != 1 {
		return "Unknown Function"
	}

	frames := runtime.CallersFrames(pcs)
	frame, _ := frames.Next()
	return frame.Function
}
