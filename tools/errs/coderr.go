package errs

import (
	"errors"
	"strconv"
	"strings"
)

// Gateway error codes. Codes below 1100 are connection-level; the rest are
// event-level and are safe to echo back to the offending client.
const (
	CodeConnUnknown     = 1001
	CodeBadToken        = 1002
	CodeUnauthenticated = 1101
	CodeUnknownEvent    = 1102
	CodeBadPayload      = 1103
)

var (
	ErrConnUnknown     = NewCodeError(CodeConnUnknown, "connection not registered")
	ErrBadToken        = NewCodeError(CodeBadToken, "token verification failed")
	ErrUnauthenticated = NewCodeError(CodeUnauthenticated, "authentication required")
	ErrUnknownEvent    = NewCodeError(CodeUnknownEvent, "unknown event")
	ErrBadPayload      = NewCodeError(CodeBadPayload, "malformed payload")
)

func NewCodeError(code int, msg string) CodeError {
	return CodeError{
		Code: code,
		Msg:  msg,
	}
}

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func (e *CodeError) WithDetail(detail string) *CodeError {
	var d string
	if e.Detail == "" {
		d = detail
	} else {
		d = e.Detail + ", " + detail
	}
	return &CodeError{
		Code:   e.Code,
		Msg:    e.Msg,
		Detail: d,
	}
}

func (e *CodeError) Is(err error) bool {
	var codeErr *CodeError
	if !errors.As(err, &codeErr) {
		return err == nil && e == nil
	}
	if e == nil {
		return false
	}
	return e.Code == codeErr.Code
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)

	if e.Detail != "" {
		v = append(v, e.Detail)
	}

	return strings.Join(v, " ")
}

// AsCode extracts a *CodeError from an error chain, or nil.
func AsCode(err error) *CodeError {
	var codeErr *CodeError
	if errors.As(err, &codeErr) {
		return codeErr
	}
	return nil
}
