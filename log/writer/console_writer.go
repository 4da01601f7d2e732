package writer

import (
	"io"
	"os"
)

// ConsoleWriterOptions 控制台输出配置
type ConsoleWriterOptions struct {
	// 输出目标：stdout, stderr
	Target string `cfg:"target" def:"stderr" validate:"omitempty,oneof=stdout stderr"`
}

// ConsoleWriter 控制台输出器
// 命令行工具的结果输出到 stdout，日志默认输出到 stderr
type ConsoleWriter struct {
	writer io.Writer
	target string
}

func NewConsoleWriterWithOptions(options *ConsoleWriterOptions) (*ConsoleWriter, error) {
	target := "stderr"
	if options != nil && options.Target == "stdout" {
		target = "stdout"
	}

	w := io.Writer(os.Stderr)
	if target == "stdout" {
		w = os.Stdout
	}

	return &ConsoleWriter{writer: w, target: target}, nil
}

func (c *ConsoleWriter) Target() string {
	return c.target
}

func (c *ConsoleWriter) Write(p []byte) (int, error) {
	return c.writer.Write(p)
}

// Close 控制台不需要关闭
func (c *ConsoleWriter) Close() error {
	return nil
}
