package apperrors

import (
	"errors"
	"fmt"
)

// ErrorType 错误分类
type ErrorType string

const (
	ErrTypeIO      ErrorType = "IO"      // 输入文件不存在或不可读
	ErrTypeParsing ErrorType = "PARSING" // CSV格式错误、日期或数值无法解析
	ErrTypeShape   ErrorType = "SHAPE"   // 缺少列、列名或列顺序不符
	ErrTypeConfig  ErrorType = "CONFIG"  // 配置文件错误
	ErrTypeRender  ErrorType = "RENDER"  // 图表渲染失败
)

// AppError 应用错误，所有阶段的失败都包装成该类型向上传递
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap 支持 errors.Is / errors.As
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext 附加上下文信息(行号、列名等)
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

func NewIOError(message string, cause error) *AppError {
	return NewAppError(ErrTypeIO, message, cause)
}

func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

func NewShapeError(message string, cause error) *AppError {
	return NewAppError(ErrTypeShape, message, cause)
}

func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

func NewRenderError(message string, cause error) *AppError {
	return NewAppError(ErrTypeRender, message, cause)
}

// IsType 判断错误链中是否存在指定类型的 AppError
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// TypeOf 返回错误链中第一个 AppError 的类型，没有则返回空串
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
