package loader

import (
	"context"
	"io"
	"time"

	"github.com/hatlonely/pipesize/log"
	"github.com/hatlonely/pipesize/ref"
	"github.com/hatlonely/pipesize/table"
	"github.com/pkg/errors"
)

const Namespace = "github.com/hatlonely/pipesize/table/loader"

func init() {
	ref.MustRegister(Namespace, "FileLoader", NewFileLoaderWithOptions)
	ref.MustRegister(Namespace, "GormLoader", NewGormLoaderWithOptions)
}

// Loader 从外部数据源读取参考表记录，只在启动时调用一次
type Loader interface {
	Load(ctx context.Context) ([]table.Record, error)
}

// Records 已解码的记录，作为 Loader 使用
type Records []table.Record

func (r Records) Load(ctx context.Context) ([]table.Record, error) {
	return r, nil
}

type Options struct {
	// 数据源，Namespace 为空时使用本包
	Loader ref.TypeOptions `cfg:"loader"`
	// 单位制列数量，其余为标准列
	DimensionCount int `cfg:"dimensionCount" def:"2" validate:"gte=0"`
	// 严格模式下表数据存在冲突或非法值时拒绝加载，否则只打印告警
	Strict bool `cfg:"strict"`
}

// NewLoaderWithOptions 根据 TypeOptions 创建数据源
func NewLoaderWithOptions(options *ref.TypeOptions) (Loader, error) {
	if options == nil {
		return nil, errors.New("loader options is nil")
	}
	namespace := options.Namespace
	if namespace == "" {
		namespace = Namespace
	}
	l, err := ref.NewWithTypeOptions[Loader](&ref.TypeOptions{
		Namespace: namespace,
		Type:      options.Type,
		Options:   options.Options,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "ref.NewWithTypeOptions failed")
	}
	return l, nil
}

// LoadTable 加载并校验参考表
func LoadTable(ctx context.Context, options *Options) (*table.Table, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}

	l, err := NewLoaderWithOptions(&options.Loader)
	if err != nil {
		return nil, err
	}
	if c, ok := l.(io.Closer); ok {
		defer c.Close()
	}
	return Build(ctx, l, options.DimensionCount, options.Strict)
}

// LoadFile 从文件加载参考表，解码器由文件后缀决定
func LoadFile(ctx context.Context, filePath string) (*table.Table, error) {
	l, err := NewFileLoaderWithOptions(&FileLoaderOptions{FilePath: filePath})
	if err != nil {
		return nil, err
	}
	defer l.Close()
	return Build(ctx, l, table.DefaultDimensionCount, false)
}

// Build 读取记录并创建只读的参考表
func Build(ctx context.Context, l Loader, dimensionCount int, strict bool) (*table.Table, error) {
	logger := log.Default().WithGroup("tableLoader")

	start := time.Now()
	records, err := l.Load(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "load records failed")
	}

	if dimensionCount <= 0 {
		dimensionCount = table.DefaultDimensionCount
	}
	t := table.New(records, table.WithDimensionCount(dimensionCount))
	if t.Len() == 0 {
		return nil, table.ErrEmptyTable
	}

	if issues := table.Validate(t); len(issues) > 0 {
		if strict {
			return nil, &table.IssuesError{Issues: issues}
		}
		for _, issue := range issues {
			logger.Warn("pipe table issue", "kind", issue.Kind, "detail", issue.String())
		}
	}

	columns, _ := t.Columns()
	logger.Info("pipe table loaded", "rows", t.Len(), "columns", columns, "duration", time.Since(start))
	return t, nil
}
