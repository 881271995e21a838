package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// 业务错误码
const (
	CodeBadPayload   = 1001 // 入站消息不可解析或缺少必填字段
	CodeUnknownAlert = 1002 // 指令引用了不存在的告警 id
	CodeLateCommand  = 1003 // 指令引用了已归档的告警 id
	CodeUpstream     = 2001 // 分类器/地理编码等上游协作方失败
	CodeStorage      = 2002 // 证据对象存储失败
)

// Error 带错误码与调用栈的业务错误
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"` // 原始错误，不序列化
	Stack   string `json:"stack,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements the errors.Wrapper interface
func (e *Error) Unwrap() error { return e.Err }

// WithCode 创建带错误码的错误
func WithCode(code int, message string) *Error {
	return &Error{Code: code, Message: message, Stack: captureStack()}
}

// WithCodef 创建带错误码的格式化错误
func WithCodef(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Stack: captureStack()}
}

// WrapCode 包装底层错误并附加错误码
func WrapCode(code int, err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err, Stack: captureStack()}
}

// Wrap 包装底层错误
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: message, Err: err, Stack: captureStack()}
}

// Wrapf 包装底层错误（格式化）
func Wrapf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: fmt.Sprintf(format, args...), Err: err, Stack: captureStack()}
}

// New 创建普通错误
func New(message string) *Error {
	return &Error{Message: message, Stack: captureStack()}
}

// GetCode 提取错误码，非业务错误返回 0
func GetCode(err error) int {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return 0
}

// captureStack 捕获当前调用栈（去掉构造函数自身的帧）
func captureStack() string {
	buf := make([]byte, 1024)
	n := runtime.Stack(buf, false)
	lines := strings.Split(string(buf[:n]), "\n")
	if len(lines) > 6 {
		lines = lines[6:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
