package player

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrorCode categorizes player errors.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeDecode       ErrorCode = "DECODE_ERROR"
	ErrCodeAudio        ErrorCode = "AUDIO_ERROR"
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"
)

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrNotFound     = &Error{Code: ErrCodeNotFound}
	ErrDecode       = &Error{Code: ErrCodeDecode}
	ErrAudio        = &Error{Code: ErrCodeAudio}
	ErrInvalidState = &Error{Code: ErrCodeInvalidState}
)

// Error is returned by every fallible Player operation.
type Error struct {
	Code ErrorCode
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Op)
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code ErrorCode, op, msg string, err error) *Error {
	return &Error{Code: code, Op: op, Msg: msg, Err: err}
}

func invalidState(op, msg string) *Error {
	return newError(ErrCodeInvalidState, op, msg, nil)
}

func audioError(op string, err error) *Error {
	return newError(ErrCodeAudio, op, "", err)
}

// openError classifies a decoder failure: missing files are NotFound,
// anything else is a decode failure.
func openError(op, path string, err error) *Error {
	if errors.Is(err, fs.ErrNotExist) {
		return newError(ErrCodeNotFound, op, path, err)
	}
	return newError(ErrCodeDecode, op, path, err)
}
