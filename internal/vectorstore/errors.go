package vectorstore

import "github.com/pkg/errors"

var (
	// ErrIndexNotFound 索引不存在
	ErrIndexNotFound = errors.New("vector index not found")
	// ErrDimensionMismatch 向量维度与索引维度不一致
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidFilter 过滤表达式无法解析
	ErrInvalidFilter = errors.New("invalid vector index filter")
	// ErrIndexRequest 索引服务请求失败
	ErrIndexRequest = errors.New("vector index request failed")
)

// IsIndexError 判断错误是否来自向量索引
func IsIndexError(err error) bool {
	return errors.Is(err, ErrIndexRequest) ||
		errors.Is(err, ErrIndexNotFound) ||
		errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrInvalidFilter)
}

func requestError(op string, detail any) error {
	return errors.Wrapf(ErrIndexRequest, "%s: %v", op, detail)
}
