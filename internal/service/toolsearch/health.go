package toolsearch

import (
	"context"
	"time"

	"github.com/ashwinyue/tool-search/internal/logger"
	"github.com/ashwinyue/tool-search/internal/vectorstore"
)

// 健康状态
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus 健康检查结果
type HealthStatus struct {
	Status             string             `json:"status"`
	IndexName          string             `json:"index_name,omitempty"`
	IndexStats         *vectorstore.Stats `json:"index_stats,omitempty"`
	EmbeddingDimension int                `json:"embedding_dimension,omitempty"`
	EmbeddingModel     string             `json:"embedding_model,omitempty"`
	Error              string             `json:"error,omitempty"`
	// Timestamp 毫秒时间戳
	Timestamp int64 `json:"timestamp"`
}

// Healthy 是否健康
func (h HealthStatus) Healthy() bool {
	return h.Status == StatusHealthy
}

// HealthCheck 读取索引统计并做一次向量化调用；失败时返回 unhealthy，不返回错误
func (s *Service) HealthCheck(ctx context.Context) HealthStatus {
	stats, err := s.GetIndexStats(ctx)
	if err != nil {
		return s.unhealthy(err)
	}

	vec, err := s.embedOne(ctx, "test")
	if err != nil {
		return s.unhealthy(err)
	}

	return HealthStatus{
		Status:             StatusHealthy,
		IndexName:          s.cfg.IndexName,
		IndexStats:         stats,
		EmbeddingDimension: len(vec),
		EmbeddingModel:     s.cfg.EmbeddingModel,
		Timestamp:          time.Now().UnixMilli(),
	}
}

func (s *Service) unhealthy(err error) HealthStatus {
	logger.Warnf("Tool search health check failed: %v", err)
	return HealthStatus{
		Status:    StatusUnhealthy,
		Error:     err.Error(),
		Timestamp: time.Now().UnixMilli(),
	}
}
