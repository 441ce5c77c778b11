package cerr

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/kazz187/jobflow/pkg/clog"
)

type Error struct {
	Code    Code
	Msg     string   // returned to the caller together with Code
	Err     error    // logged only
	Stack   string   // captured for error-level codes
	Details []Detail // returned to the caller, e.g. one per validation violation
}

// Detail is one caller-facing reason attached to an Error.
type Detail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Rule    string `json:"rule,omitempty"`
}

func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if clog.HTTPStatusToLevel(code.HTTPCode()) == clog.LevelError {
		stackTrace := make([]byte, 2048)
		n := runtime.Stack(stackTrace, false)
		err.Stack = string(stackTrace[0:n])
	}
	return err
}

func NewErrorWithDetails(code Code, msg string, underlying error, details []Detail) *Error {
	err := NewError(code, msg, underlying)
	err.Details = details
	return err
}

func (e *Error) AddDetail(d Detail) {
	e.Details = append(e.Details, d)
}

func (e *Error) AddDetailMessage(msg string) error {
	e.Details = append(e.Details, Detail{Message: msg})
	return e
}

func (e *Error) AddDetailMessageWithCode(msg string, code string) error {
	e.Details = append(e.Details, Detail{Message: msg, Rule: code})
	return e
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code.String(), e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func IsCode(err error, code Code) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code == code
	}
	return false
}

// CodeOf returns Unknown for errors that did not come from this package.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return Unknown
}
