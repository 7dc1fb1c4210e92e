package domain

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	// ErrSnippetNotFound covers both a genuinely missing snippet and an
	// ownership mismatch. Mutations by a non-owner must be indistinguishable
	// from mutations on an id that never existed.
	ErrSnippetNotFound   = NewErr("SNIPPET_NOT_FOUND", "Snippet not found", http.StatusNotFound)
	ErrUserNotFound      = NewErr("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	ErrUserExists        = NewErr("USER_EXISTS", "User with such credentials already exists", http.StatusBadRequest)
	ErrUnauthorized      = NewErr("UNAUTHORIZED", "Could not validate credentials", http.StatusUnauthorized)
	ErrSnippetTooLarge   = NewErr("SNIPPET_TOO_LARGE", "snippet too large", http.StatusBadRequest)
	ErrInvalidRequest    = NewErr("INVALID_REQUEST", "invalid request", http.StatusBadRequest)
	ErrValidation        = NewErr("VALIDATION_FAILED", "request validation failed", http.StatusUnprocessableEntity)
	ErrRateLimitExceeded = NewErr("RATE_LIMIT_EXCEEDED", "rate limit exceeded", http.StatusTooManyRequests)
	ErrInternalServer    = NewErr("INTERNAL_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrIDGeneration      = NewErr("ID_GENERATION_FAILED", "id generation failed", http.StatusInternalServerError)
)

type Err struct {
	Code   string `json:"code"`
	Msg    string `json:"message"`
	Status int    `json:"-"`
}

func (e *Err) Error() string { return e.Msg }

func NewErr(code, msg string, status int) *Err {
	return &Err{Code: code, Msg: msg, Status: status}
}

type ErrResp struct {
	Error ErrDetail `json:"error"`
}
type ErrDetail struct {
	Code string `json:"code"`
	Msg  string `json:"message"`
}

func ToResp(err error) ErrResp {
	if e, ok := err.(*Err); ok {
		return ErrResp{Error: ErrDetail{Code: e.Code, Msg: e.Msg}}
	}
	if e, ok := errors.Cause(err).(*Err); ok {
		return ErrResp{Error: ErrDetail{Code: e.Code, Msg: e.Msg}}
	}
	return ErrResp{Error: ErrDetail{Code: "INTERNAL_ERROR", Msg: "Internal server error"}}
}

func Status(err error) int {
	if e, ok := err.(*Err); ok {
		return e.Status
	}
	if e, ok := errors.Cause(err).(*Err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}
