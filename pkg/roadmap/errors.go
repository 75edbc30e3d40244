package roadmap

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies editor failures.
type ErrorKind string

const (
	// KindValidation 必填字段缺失或枚举值非法，在任何网络调用之前拦截
	KindValidation ErrorKind = "VALIDATION_ERROR"

	// KindFetchFailed 网络错误或非 2xx 响应
	KindFetchFailed ErrorKind = "FETCH_FAILED"

	// KindImportFormat 上传的 JSON 文档格式错误或不完整
	KindImportFormat ErrorKind = "IMPORT_FORMAT_ERROR"

	// KindNotFound 本地树中不存在目标节点
	KindNotFound ErrorKind = "NOT_FOUND"

	// KindConfirmationRequired 批量删除未确认
	KindConfirmationRequired ErrorKind = "CONFIRMATION_REQUIRED"
)

// Error is the error type returned by every roadmap package.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	// Status is the HTTP status of the collaborator response, 0 for network errors.
	Status int
	Cause  error
}

// Error 实现 error 接口
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Kind, e.Op, e.Message)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap 实现错误链支持
func (e *Error) Unwrap() error {
	return e.Cause
}

// ValidationError reports a missing or malformed field.
func ValidationError(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// FetchFailed wraps a transport failure or non-2xx response.
func FetchFailed(op string, status int, cause error) *Error {
	msg := "request failed"
	if status != 0 {
		msg = fmt.Sprintf("server responded %d %s", status, http.StatusText(status))
	}
	return &Error{Kind: KindFetchFailed, Op: op, Message: msg, Status: status, Cause: cause}
}

// ImportFormatError reports an unusable import document.
func ImportFormatError(message string, cause error) *Error {
	return &Error{Kind: KindImportFormat, Op: "import", Message: message, Cause: cause}
}

// NotFound reports a node missing from the local tree.
func NotFound(kind Kind, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %q not found", kind, id)}
}

// KindOf returns the ErrorKind carried by err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err (or anything it wraps) is an *Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	return err != nil && KindOf(err) == k
}

// HTTPStatus maps an error kind to the status the console responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindImportFormat:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConfirmationRequired:
		return http.StatusConflict
	case KindFetchFailed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ConfirmationRequired reports a destructive action submitted without confirmation.
func ConfirmationRequired(op string) *Error {
	return &Error{Kind: KindConfirmationRequired, Op: op, Message: "explicit confirmation required"}
}
