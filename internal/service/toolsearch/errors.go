package toolsearch

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/ashwinyue/tool-search/internal/embedder"
	"github.com/ashwinyue/tool-search/internal/vectorstore"
)

// ErrorCode 错误类型，每种失败来源对应一种
type ErrorCode string

const (
	CodeUnknown        ErrorCode = "UNKNOWN_ERROR"
	CodeInitialization ErrorCode = "INITIALIZATION_ERROR"
	CodeConfiguration  ErrorCode = "CONFIGURATION_ERROR"
	CodeDependency     ErrorCode = "DEPENDENCY_ERROR"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeEmbedding      ErrorCode = "EMBEDDING_ERROR"
	CodeIndex          ErrorCode = "INDEX_ERROR"
	CodeUpsert         ErrorCode = "UPSERT_ERROR"
	CodeQuery          ErrorCode = "QUERY_ERROR"
	CodeDelete         ErrorCode = "DELETE_ERROR"
	CodeFetch          ErrorCode = "FETCH_ERROR"
	CodeFileLoad       ErrorCode = "FILE_LOAD_ERROR"
	CodeToolkitUpsert  ErrorCode = "TOOLKIT_UPSERT_ERROR"
	CodeToolkitQuery   ErrorCode = "TOOLKIT_QUERY_ERROR"
	CodeToolkitDelete  ErrorCode = "TOOLKIT_DELETE_ERROR"
	CodeBatchUpsert    ErrorCode = "BATCH_UPSERT_ERROR"
	CodeBatchDelete    ErrorCode = "BATCH_DELETE_ERROR"
	CodeStats          ErrorCode = "STATS_ERROR"
)

// Error 工具检索错误
//
// Committed 仅在批量写入部分失败时非空，记录失败前已提交的 ID。
type Error struct {
	Code      ErrorCode
	Message   string
	Committed []string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf 返回错误类型；非本包错误为 UNKNOWN_ERROR
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode 判断错误类型
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// CommittedIDs 返回部分失败时已提交的 ID
func CommittedIDs(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Committed
	}
	return nil
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError 供装配阶段使用，语义同 wrapError
func WrapError(err error, code ErrorCode, action string) error {
	return wrapError(err, code, action)
}

// wrapError 以固定类型包装；已分类的错误原样返回
func wrapError(err error, code ErrorCode, action string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Code: code, Message: fmt.Sprintf("%s: %v", action, err), Err: err}
}

// classifyError 优先归类为 EMBEDDING 或 INDEX，否则使用 fallback
func classifyError(err error, fallback ErrorCode, action string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return wrapError(err, classify(err, fallback), action)
}

func classify(err error, fallback ErrorCode) ErrorCode {
	switch {
	case errors.Is(err, embedder.ErrEmbedding), errors.Is(err, embedder.ErrDimensionMismatch):
		return CodeEmbedding
	case vectorstore.IsIndexError(err):
		return CodeIndex
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "embedding"):
		return CodeEmbedding
	case strings.Contains(msg, "vector index"), strings.Contains(msg, "elasticsearch"):
		return CodeIndex
	}
	return fallback
}
