// Package apperr carries typed, status-aware errors from the store up to the
// HTTP error handler.
package apperr

import (
	"errors"
	"net/http"
)

const internalCode = "internal_error"

// Error is an application error with a stable code and an HTTP status.
// Sentinels are never mutated; the helpers below return copies.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message,omitempty"`
	Status  int            `json:"-"`
	Fields  map[string]any `json:"fields,omitempty"`
	Err     error          `json:"-"`
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	case e.Code != "":
		return e.Code
	}
	return "error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors of the same code, so ErrGoodsNotFound is ErrNotFound.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t != nil && e.Code == t.Code
}

func (e *Error) clone() *Error {
	c := *e
	return &c
}

// Wrap attaches cause err to a copy of base. A nil err stays nil.
func Wrap(err error, base *Error, message string) *Error {
	if err == nil {
		return nil
	}
	if base == nil {
		base = ErrInternal
	}
	out := base.clone()
	out.Err = err
	if message != "" {
		out.Message = message
	}
	return out
}

// WithMessage copies base with a caller-facing message.
func WithMessage(base *Error, message string) *Error {
	if base == nil {
		return nil
	}
	out := base.clone()
	out.Message = message
	return out
}

// WithFields copies base with per-field details for the response body.
func WithFields(base *Error, fields map[string]any) *Error {
	if base == nil {
		return nil
	}
	out := base.clone()
	out.Fields = fields
	return out
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

// Status is the HTTP status for err; untyped errors are 500.
func Status(err error) int {
	if e, ok := As(err); ok && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

func Code(err error) string {
	if e, ok := As(err); ok && e.Code != "" {
		return e.Code
	}
	return internalCode
}

// Message is the text shown to clients for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := As(err); ok {
		return e.Error()
	}
	return err.Error()
}

// Payload is the JSON body rendered for err.
func Payload(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}
	p := map[string]any{"code": Code(err), "message": Message(err)}
	if e, ok := As(err); ok && len(e.Fields) > 0 {
		p["fields"] = e.Fields
	}
	return p
}

var (
	ErrBadRequest   = New("bad_request", http.StatusBadRequest, "")
	ErrValidation   = New("validation_error", http.StatusBadRequest, "")
	ErrEmptyBody    = New("empty_body", http.StatusBadRequest, "request body is empty")
	ErrUnauthorized = New("unauthorized", http.StatusUnauthorized, "")
	ErrForbidden    = New("forbidden", http.StatusForbidden, "")
	ErrNotFound     = New("not_found", http.StatusNotFound, "")
	ErrConflict     = New("conflict", http.StatusConflict, "")
	ErrInternal     = New(internalCode, http.StatusInternalServerError, "")
	ErrUnavailable  = New("service_unavailable", http.StatusServiceUnavailable, "")
	ErrDatabase     = New("database_error", http.StatusInternalServerError, "")
)

// Domain errors.
var (
	ErrInvalidCredentials = New("invalid_credentials", http.StatusUnauthorized, "invalid email or password")
	ErrInsufficientStock  = New("insufficient_stock", http.StatusConflict, "insufficient stock")
	ErrGoodsNotFound      = New("not_found", http.StatusNotFound, "Goods not found")
	ErrSalesNotFound      = New("not_found", http.StatusNotFound, "Sales not found")
	ErrRestockNotFound    = New("not_found", http.StatusNotFound, "Restock inference not found")
	ErrAssistantDisabled  = New("assistant_unavailable", http.StatusServiceUnavailable, "chat assistant is not configured")
)
