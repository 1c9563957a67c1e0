package apperror

import (
	"errors"
	"net/http"
)

// Error là lỗi mang sẵn HTTP status và thông điệp hiển thị cho client.
type Error struct {
	Status  int
	Message string
	Err     error
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Wrap gắn lỗi gốc vào một lỗi nghiệp vụ, giữ nguyên status/message.
func Wrap(base *Error, err error) *Error {
	return &Error{Status: base.Status, Message: base.Message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is so sánh theo status + message nên errors.Is(Wrap(ErrX, err), ErrX) == true.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Status == t.Status && e.Message == t.Message
}

// From trả về *Error nằm trong chuỗi lỗi, nếu có.
func From(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func BadRequest(message string) *Error   { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *Error { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *Error    { return New(http.StatusForbidden, message) }
func NotFound(message string) *Error     { return New(http.StatusNotFound, message) }
func Conflict(message string) *Error     { return New(http.StatusConflict, message) }
