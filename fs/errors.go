package fs

import "golang.org/x/xerrors"

// Code is the §6.6 error taxonomy, surfaced from every layer above the
// block device.
type Code string

const (
	Uninitialized        Code = "Uninitialized"
	Unformatted           Code = "Unformatted"
	WrongBSize            Code = "WrongBSize"
	WrongCapacity         Code = "WrongCapacity"
	WrongDOSType          Code = "WrongDOSType"
	WrongBlockType        Code = "WrongBlockType"
	OutOfRange            Code = "OutOfRange"
	OutOfSpace            Code = "OutOfSpace"
	NotAFile              Code = "NotAFile"
	NotADirectory         Code = "NotADirectory"
	NotAFileOrDirectory   Code = "NotAFileOrDirectory"
	NotFound              Code = "NotFound"
	Exists                Code = "Exists"
	DirNotEmpty           Code = "DirNotEmpty"
	InvalidPath           Code = "InvalidPath"
	InvalidRegex          Code = "InvalidRegex"
	HasCycles             Code = "HasCycles"
	Corrupted             Code = "Corrupted"
	ReadOnly              Code = "ReadOnly"
	CannotOpen            Code = "CannotOpen"
	CannotCreateDir       Code = "CannotCreateDir"
	CannotCreateFile      Code = "CannotCreateFile"
	Io                    Code = "Io"
)

// Error is a typed, located error. Wrap lower-level errors with
// xerrors.Errorf("...: %w", err) before attaching a Code so the original
// cause is still retrievable via errors.Unwrap.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Cause != nil {
		return xerrors.Errorf("%s: %s: %w", e.Code, msg, e.Cause).Error()
	}
	return xerrors.Errorf("%s: %s", e.Code, msg).Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, &Error{Code: NotFound}) match any *Error with
// the same Code, regardless of Message/Cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newErr(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: xerrors.Errorf(format, args...).Error()}
}

func wrapErr(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}
