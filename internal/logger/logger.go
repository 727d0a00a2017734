// 包 logger：统一初始化与获取日志器，避免各模块重复配置；通过环境变量控制日志级别与输出格式
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// 默认日志器：在进程级复用，避免多处初始化导致输出不一致
var defaultLogger *slog.Logger

// Setup：初始化默认日志器，输出到标准错误
// 背景：批处理工具与库代码共用同一日志器，级别与格式按环境统一调整
// 约束：LOG_LEVEL 取 debug/info/warn/error，LOG_FORMAT 取 text/json，其余值回退为 info/text
func Setup() *slog.Logger {
	return SetupWriter(os.Stderr)
}

// SetupWriter：同 Setup，但输出目标由调用方指定（测试中捕获日志）
func SetupWriter(w io.Writer) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	var h slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	}
	defaultLogger = slog.New(h)
	return defaultLogger
}

// L：获取默认日志器；若未初始化则回退到 Setup
func L() *slog.Logger {
	if defaultLogger == nil {
		return Setup()
	}
	return defaultLogger
}

// Stage：记录阶段开始，返回的函数在阶段结束时记录耗时
// 用法：defer logger.Stage("validate")()
func Stage(name string) func() {
	l := L()
	start := time.Now()
	l.Info("stage_start", "stage", name)
	return func() {
		l.Info("stage_done", "stage", name, "elapsed", time.Since(start).String())
	}
}
