package log

import (
	"github.com/hatlonely/pipesize/log/logger"
)

type Logger = logger.Logger

type Options = logger.SLogOptions

var defaultLogger logger.Logger

func init() {
	// 默认向 stderr 输出 text 格式日志
	l, err := logger.NewSLogWithOptions(&logger.SLogOptions{
		Level:  "info",
		Format: "text",
	})
	if err != nil {
		panic("failed to initialize default logger: " + err.Error())
	}
	defaultLogger = l
}

func Default() Logger {
	return defaultLogger
}

// SetDefault 替换全局默认日志器，nil 时忽略
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// NewLoggerWithOptions 根据选项创建日志器，options 为 nil 时返回默认日志器
func NewLoggerWithOptions(options *Options) (Logger, error) {
	if options == nil {
		return Default(), nil
	}
	return logger.NewSLogWithOptions(options)
}
