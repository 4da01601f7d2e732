package writer

import (
	"io"

	"github.com/hatlonely/pipesize/ref"
)

const Namespace = "github.com/hatlonely/pipesize/log/writer"

func init() {
	ref.MustRegister(Namespace, "ConsoleWriter", NewConsoleWriterWithOptions)
	ref.MustRegister(Namespace, "FileWriter", NewFileWriterWithOptions)
}

// Writer 日志输出器接口
type Writer interface {
	io.Writer
	io.Closer
}
