package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 定义日志初始化配置
// Level 支持 debug/info/warn/error，Environment 支持 prod/dev 等
// Format 显式指定 json/text，留空时按 Environment 推断（prod 为 json）
// File 非空时同时写入滚动日志文件
// WithSource 控制是否记录源码位置
type Config struct {
	Level       string
	Environment string
	Format      string
	File        string
	WithSource  bool
}

var (
	global *slog.Logger
	once   sync.Once
)

func levelFromString(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.New("invalid log level: " + level)
	}
}

func useJSON(cfg Config) (bool, error) {
	switch strings.ToLower(cfg.Format) {
	case "json":
		return true, nil
	case "text":
		return false, nil
	case "":
		return strings.ToLower(cfg.Environment) == "prod", nil
	default:
		return false, errors.New("invalid log format: " + cfg.Format)
	}
}

// rotatingFile 日志文件按大小滚动
func rotatingFile(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
}

// New 根据配置创建新的 slog.Logger，不设置全局实例
func New(cfg Config) (*slog.Logger, error) {
	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = io.MultiWriter(os.Stdout, rotatingFile(cfg.File))
	}
	return NewWithWriter(cfg, out)
}

// NewWithWriter 与 New 相同，但输出到指定 writer
func NewWithWriter(cfg Config, w io.Writer) (*slog.Logger, error) {
	lvl, err := levelFromString(cfg.Level)
	if err != nil {
		return nil, err
	}
	asJSON, err := useJSON(cfg)
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl, AddSource: cfg.WithSource}
	var handler slog.Handler
	if asJSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(handler), nil
}

// Init 初始化全局日志实例，重复调用将返回首次创建的 logger
func Init(cfg Config) (*slog.Logger, error) {
	var initErr error
	once.Do(func() {
		global, initErr = New(cfg)
	})
	return global, initErr
}

// L 返回已初始化的全局 logger，未初始化时返回丢弃输出的 logger
func L() *slog.Logger {
	if global == nil {
		return discard
	}
	return global
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// LogMutation 记录一次编辑操作的结构化日志
// op: create/update/delete/move/bulk/import
// kind: roadmap/level/milestone/challenge
// id: 目标节点 ID
// durationMs: 耗时（毫秒）
// errorKind: 错误类别（可选，非空时以 warn 级别记录）
func LogMutation(logger *slog.Logger, op, kind, id string, durationMs int64, errorKind string) {
	attrs := []slog.Attr{
		slog.String("op", op),
		slog.String("kind", kind),
		slog.String("id", id),
		slog.Int64("duration_ms", durationMs),
	}

	if errorKind != "" {
		attrs = append(attrs, slog.String("error_kind", errorKind))
		logger.LogAttrs(context.Background(), slog.LevelWarn, "Roadmap mutation rolled back", attrs...)
	} else {
		logger.LogAttrs(context.Background(), slog.LevelInfo, "Roadmap mutation committed", attrs...)
	}
}
