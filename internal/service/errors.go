package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误分类，决定 HTTP 状态码
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindBadRequest
	KindValidation
	KindConflict
	KindTooManyRequests
)

const (
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeBadRequest        = "BAD_REQUEST"
	CodeValidation        = "VALIDATION_ERROR"
	CodeConflict          = "CONFLICT"
	CodeItemUnavailable   = "ITEM_UNAVAILABLE"
	CodeSelfTrade         = "SELF_TRADE"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeTooManyRequests   = "TOO_MANY_REQUESTS"
	CodeInternal          = "INTERNAL_ERROR"
)

// internalMessage 内部错误对外只给通用提示
const internalMessage = "internal server error"

var kindStatus = map[Kind]int{
	KindInternal:        http.StatusInternalServerError,
	KindUnauthorized:    http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindNotFound:        http.StatusNotFound,
	KindBadRequest:      http.StatusBadRequest,
	KindValidation:      http.StatusBadRequest,
	KindConflict:        http.StatusConflict,
	KindTooManyRequests: http.StatusTooManyRequests,
}

func (k Kind) HTTPStatus() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// AppError 业务层统一错误
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, code, msg string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: msg}
}

func Unauthorized(msg string) *AppError {
	return newError(KindUnauthorized, CodeUnauthorized, msg)
}

func Forbidden(msg string) *AppError {
	return newError(KindForbidden, CodeForbidden, msg)
}

func NotFound(msg string) *AppError {
	return newError(KindNotFound, CodeNotFound, msg)
}

// BadRequest code 为空时使用 BAD_REQUEST
func BadRequest(code, msg string) *AppError {
	if code == "" {
		code = CodeBadRequest
	}
	return newError(KindBadRequest, code, msg)
}

func Validation(msg string) *AppError {
	return newError(KindValidation, CodeValidation, msg)
}

func Conflict(msg string) *AppError {
	return newError(KindConflict, CodeConflict, msg)
}

func TooManyRequests() *AppError {
	return newError(KindTooManyRequests, CodeTooManyRequests, "请求过于频繁，请稍后再试")
}

// Internal 包装基础设施错误
func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Code: CodeInternal, Message: internalMessage, Err: err}
}

// AsAppError 非 AppError 一律视为内部错误
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
