// Package log 基于 zerolog 的全局日志，控制台输出为主，可选 lumberjack 文件轮转.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yeisme/studyvault/pkg/configs"
)

var (
	logger   zerolog.Logger
	initOnce sync.Once
)

// Init 初始化全局 logger，重复调用只生效一次.
func Init() {
	initOnce.Do(initLogger)
}

// Logger 返回全局 logger，首次使用时自动初始化.
func Logger() *zerolog.Logger {
	initOnce.Do(initLogger)

	return &logger
}

func initLogger() {
	cfg := configs.GetConfig()

	zerolog.SetGlobalLevel(parseLevel(cfg.Log.Level))

	ctx := zerolog.New(buildOutput(&cfg.Log)).With()
	if cfg.Server.Debug {
		ctx = ctx.Caller().Stack()

		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logger = ctx.Timestamp().Logger()
	log.Logger = logger
}

// parseLevel 解析配置的日志级别，非法值回退到 info.
func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		fmt.Printf("invalid log level %q, defaulting to info", level)

		return zerolog.InfoLevel
	}

	return lvl
}

// buildOutput 组装输出目标：stderr 控制台始终开启，文件输出按配置追加.
func buildOutput(cfg *configs.LogConfig) io.Writer {
	console := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
		w.TimeFormat = time.Kitchen
	})

	if !cfg.EnableFile {
		return console
	}

	return io.MultiWriter(console, &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	})
}

// GinWriter 把 Gin 的文本日志行转成指定级别的 zerolog 事件.
type GinWriter struct {
	logger *zerolog.Logger
	level  zerolog.Level
}

func NewGinWriter(logger *zerolog.Logger, level zerolog.Level) *GinWriter {
	return &GinWriter{logger: logger, level: level}
}

func (w *GinWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))

	switch w.level {
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		w.logger.Error().Msg(msg)
	case zerolog.WarnLevel:
		w.logger.Warn().Msg(msg)
	default:
		w.logger.Info().Msg(msg)
	}

	return len(p), nil
}
