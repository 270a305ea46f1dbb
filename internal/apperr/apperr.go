package apperr

import (
	"errors"
	"net/http"
)

// Error API 层的类型化错误，携带对外响应的 HTTP 状态码
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// BadRequest 输入非法、邮箱重复、文件类型/大小不合规
func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// Unauthorized 令牌缺失、过期或无法解析出用户
func Unauthorized(message string) *Error {
	if message == "" {
		message = "Unauthorized"
	}
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

// NotFound 文件不存在或归属不匹配
func NotFound(message string) *Error {
	if message == "" {
		message = "Not found"
	}
	return &Error{Status: http.StatusNotFound, Message: message}
}

// Internal 上传管线等处的意外失败
// 状态码沿用既有对外契约中的 501
func Internal() *Error {
	return &Error{Status: http.StatusNotImplemented, Message: "Server error"}
}

// StatusOf 解析错误对应的状态码，未识别的错误一律归为 501
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusNotImplemented
}

// MessageOf 解析错误对应的对外消息，未识别的错误不泄露内部细节
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Something went wrong"
}
