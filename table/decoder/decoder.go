package decoder

import (
	"path/filepath"
	"strings"

	"github.com/hatlonely/pipesize/ref"
	"github.com/hatlonely/pipesize/table"
	"github.com/pkg/errors"
)

const Namespace = "github.com/hatlonely/pipesize/table/decoder"

// DefaultRootKey 数据文件中记录数组所在的 key
const DefaultRootKey = "pipe_sizes_lib"

// ColumnsKey 可选的列顺序声明，对不保留 key 顺序的格式（如 protobuf Struct）有意义
const ColumnsKey = "columns"

func init() {
	ref.MustRegister(Namespace, "JsonDecoder", NewJsonDecoderWithOptions)
	ref.MustRegister(Namespace, "YamlDecoder", NewYamlDecoderWithOptions)
	ref.MustRegister(Namespace, "TomlDecoder", NewTomlDecoderWithOptions)
	ref.MustRegister(Namespace, "IniDecoder", NewIniDecoderWithOptions)
	ref.MustRegister(Namespace, "CsvDecoder", NewCsvDecoderWithOptions)
	ref.MustRegister(Namespace, "MsgPackDecoder", NewMsgPackDecoderWithOptions)
	ref.MustRegister(Namespace, "BsonDecoder", NewBsonDecoderWithOptions)
	ref.MustRegister(Namespace, "ProtobufDecoder", NewProtobufDecoderWithOptions)
}

// Decoder 将原始数据解码为参考表记录
type Decoder interface {
	Decode(data []byte) ([]table.Record, error)
}

// Encoder 将参考表记录编码为原始数据，用于生成数据快照
type Encoder interface {
	Encode(records []table.Record) ([]byte, error)
}

// Options 各解码器的公共选项
type Options struct {
	RootKey string `cfg:"rootKey" def:"pipe_sizes_lib"`
}

func (o *Options) rootKey() string {
	if o == nil || o.RootKey == "" {
		return DefaultRootKey
	}
	return o.RootKey
}

func NewDecoderWithOptions(options *ref.TypeOptions) (Decoder, error) {
	if options == nil {
		return nil, errors.New("decoder options is nil")
	}
	namespace := options.Namespace
	if namespace == "" {
		namespace = Namespace
	}
	d, err := ref.NewWithTypeOptions[Decoder](&ref.TypeOptions{
		Namespace: namespace,
		Type:      options.Type,
		Options:   options.Options,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "ref.NewWithTypeOptions failed")
	}
	return d, nil
}

// TypeForFile 根据文件后缀返回解码器类型
func TypeForFile(filename string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		return "JsonDecoder", nil
	case ".yaml", ".yml":
		return "YamlDecoder", nil
	case ".toml":
		return "TomlDecoder", nil
	case ".ini":
		return "IniDecoder", nil
	case ".csv":
		return "CsvDecoder", nil
	case ".msgpack", ".mpk":
		return "MsgPackDecoder", nil
	case ".bson":
		return "BsonDecoder", nil
	case ".pb", ".binpb":
		return "ProtobufDecoder", nil
	default:
		return "", errors.Errorf("unsupported table file extension: %q", ext)
	}
}

// ForFile 根据文件后缀创建解码器
func ForFile(filename string, rootKey string) (Decoder, error) {
	typ, err := TypeForFile(filename)
	if err != nil {
		return nil, err
	}
	return NewDecoderWithOptions(&ref.TypeOptions{
		Namespace: Namespace,
		Type:      typ,
		Options:   map[string]any{"rootKey": rootKey},
	})
}
