package callback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ashwinyue/tool-search/internal/logger"
	"github.com/ashwinyue/tool-search/internal/testutil"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	prev := logger.Get()
	t.Cleanup(func() { logger.Set(prev) })

	core, logs := observer.New(zap.DebugLevel)
	logger.Set(zap.New(core).Sugar())
	return logs
}

// ========== WrapEmbedder 测试 ==========

func TestWrapEmbedderLogsCompletion(t *testing.T) {
	logs := observeLogs(t)
	inner := testutil.NewRecordingEmbedder(8)
	emb := WrapEmbedder(inner, "placeholder", NewLogger(true))

	vecs, err := emb.EmbedStrings(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Equal(t, 1, inner.Calls())

	started := logs.FilterMessage("eino component started").All()
	require.Len(t, started, 1)
	assert.Equal(t, int64(3), started[0].ContextMap()["texts"])
	assert.Equal(t, "Embedding", started[0].ContextMap()["component"])

	completed := logs.FilterMessage("eino component completed").All()
	require.Len(t, completed, 1)
	fields := completed[0].ContextMap()
	assert.Equal(t, "placeholder", fields["name"])
	assert.Equal(t, int64(3), fields["vectors"])
	assert.Contains(t, fields, "latency")
}

func TestWrapEmbedderLogsError(t *testing.T) {
	logs := observeLogs(t)
	inner := testutil.NewRecordingEmbedder(8)
	inner.Err = testutil.ErrInjected
	emb := WrapEmbedder(inner, "placeholder", NewLogger(false))

	_, err := emb.EmbedStrings(context.Background(), []string{"a"})
	require.ErrorIs(t, err, testutil.ErrInjected)

	assert.Empty(t, logs.FilterMessage("eino component started").All())
	assert.Empty(t, logs.FilterMessage("eino component completed").All())
	failed := logs.FilterMessage("eino component failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "injected failure", failed[0].ContextMap()["error"])
}
