// Package logger 基于 zap 的日志封装
//
// 包级函数使用单例 *zap.SugaredLogger；需要注入的组件通过 Get 获取。
package logger

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var singleton atomic.Pointer[zap.SugaredLogger]

func init() {
	singleton.Store(zap.NewNop().Sugar())
}

// Initialize 按级别与格式（json / console）创建全局日志
func Initialize(level, format string) error {
	atomicLevel, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	cfg := zap.NewProductionConfig()
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = atomicLevel
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	singleton.Store(l.Sugar())
	return nil
}

// Get 返回当前日志实例
func Get() *zap.SugaredLogger {
	return singleton.Load()
}

// Set 替换全局日志，测试中用于捕获输出
func Set(l *zap.SugaredLogger) {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	singleton.Store(l)
}

// Sync 刷新缓冲
func Sync() {
	_ = Get().Sync()
}

func Debugf(msg string, args ...any) { Get().Debugf(msg, args...) }

func Debugw(msg string, keysAndValues ...any) { Get().Debugw(msg, keysAndValues...) }

func Infof(msg string, args ...any) { Get().Infof(msg, args...) }

func Infow(msg string, keysAndValues ...any) { Get().Infow(msg, keysAndValues...) }

func Warnf(msg string, args ...any) { Get().Warnf(msg, args...) }

func Warnw(msg string, keysAndValues ...any) { Get().Warnw(msg, keysAndValues...) }

func Errorf(msg string, args ...any) { Get().Errorf(msg, args...) }

func Errorw(msg string, keysAndValues ...any) { Get().Errorw(msg, keysAndValues...) }
