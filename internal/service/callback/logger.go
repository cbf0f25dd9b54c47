// Package callback 提供 Eino Callback 日志支持
package callback

import (
	"context"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"

	"github.com/ashwinyue/tool-search/internal/logger"
)

type startKey struct{}

// Logger 日志回调处理器
// 实现 callbacks.Handler 接口，记录向量化调用的文本数量与耗时
type Logger struct {
	EnableDebug bool // 是否记录 OnStart 事件
}

// NewLogger 创建日志回调处理器
func NewLogger(enableDebug bool) *Logger {
	return &Logger{EnableDebug: enableDebug}
}

// OnStart 组件执行开始时调用
func (l *Logger) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	if l.EnableDebug {
		logger.Debugw("eino component started", append(runFields(info), "texts", textCount(input))...)
	}
	return context.WithValue(ctx, startKey{}, time.Now())
}

// OnEnd 组件执行成功结束时调用
func (l *Logger) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	fields := append(runFields(info), "latency", elapsed(ctx))
	if out := embedding.ConvCallbackOutput(output); out != nil {
		fields = append(fields, "vectors", len(out.Embeddings))
		if out.TokenUsage != nil {
			fields = append(fields, "total_tokens", out.TokenUsage.TotalTokens)
		}
	}
	logger.Infow("eino component completed", fields...)
	return ctx
}

// OnError 组件执行出错时调用
func (l *Logger) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	logger.Errorw("eino component failed", append(runFields(info), "latency", elapsed(ctx), "error", err)...)
	return ctx
}

// OnStartWithStreamInput 向量化没有流式输入，仅满足接口
func (l *Logger) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo, input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	input.Close()
	return ctx
}

// OnEndWithStreamOutput 同上
func (l *Logger) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo, output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	output.Close()
	return ctx
}

func runFields(info *callbacks.RunInfo) []any {
	if info == nil {
		return []any{}
	}
	return []any{"name", info.Name, "type", info.Type, "component", string(info.Component)}
}

func textCount(input callbacks.CallbackInput) int {
	if in := embedding.ConvCallbackInput(input); in != nil {
		return len(in.Texts)
	}
	return 0
}

func elapsed(ctx context.Context) time.Duration {
	start, ok := ctx.Value(startKey{}).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(start)
}
