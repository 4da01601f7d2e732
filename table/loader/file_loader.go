package loader

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/hatlonely/pipesize/log"
	"github.com/hatlonely/pipesize/log/logger"
	"github.com/hatlonely/pipesize/ref"
	"github.com/hatlonely/pipesize/table"
	"github.com/hatlonely/pipesize/table/decoder"
	"github.com/pkg/errors"
)

type FileLoaderOptions struct {
	FilePath string `cfg:"filePath" validate:"required"`
	// 数据文件中记录数组所在的 key
	RootKey string `cfg:"rootKey" def:"pipe_sizes_lib"`
	// 解码器，为空时根据文件后缀选择
	Decoder *ref.TypeOptions `cfg:"decoder"`
}

// FileLoader 从本地文件读取参考表
type FileLoader struct {
	filePath string
	decoder  decoder.Decoder
	logger   logger.Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Listener 文件变化后收到重新解码的记录，解码失败时 err 非空
type Listener func(records []table.Record, err error)

func NewFileLoaderWithOptions(options *FileLoaderOptions) (*FileLoader, error) {
	if options == nil || options.FilePath == "" {
		return nil, errors.New("file path is required")
	}

	var d decoder.Decoder
	var err error
	if options.Decoder != nil && options.Decoder.Type != "" {
		d, err = decoder.NewDecoderWithOptions(options.Decoder)
	} else {
		d, err = decoder.ForFile(options.FilePath, options.RootKey)
	}
	if err != nil {
		return nil, errors.WithMessage(err, "create decoder failed")
	}

	return &FileLoader{
		filePath: options.FilePath,
		decoder:  d,
		logger:   log.Default().WithGroup("fileLoader").With("filePath", options.FilePath),
		done:     make(chan struct{}),
	}, nil
}

func (l *FileLoader) Load(ctx context.Context) ([]table.Record, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "os.ReadFile failed")
	}

	records, err := l.decoder.Decode(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "decode %s failed", l.filePath)
	}

	l.logger.Debug("file decoded", "bytes", len(data), "rows", len(records))
	return records, nil
}

// OnChange 立即加载一次，之后每次文件被写入或替换时重新加载并通知 listener
// 已创建的 Table 不受影响，调用方用新记录创建新的 Table
func (l *FileLoader) OnChange(ctx context.Context, listener Listener) error {
	listener(l.Load(ctx))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "fsnotify.NewWatcher failed")
	}
	// 监听目录，编辑器保存时常用 rename 替换文件
	if err := watcher.Add(filepath.Dir(l.filePath)); err != nil {
		watcher.Close()
		return errors.Wrap(err, "watcher.Add failed")
	}

	target := filepath.Clean(l.filePath)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer watcher.Close()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				l.logger.Debug("file changed", "op", event.Op.String())
				listener(l.Load(ctx))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warn("watcher error", "error", err)
			case <-ctx.Done():
				return
			case <-l.done:
				return
			}
		}
	}()

	return nil
}

// Close 停止监听
func (l *FileLoader) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
	})
	l.wg.Wait()
	return nil
}
