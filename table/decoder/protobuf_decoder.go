package decoder

import (
	"github.com/hatlonely/pipesize/table"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtobufDecoder 以 google.protobuf.Struct 序列化的数据快照
// Struct 不保留字段顺序，列顺序由 columns 声明；数值都是 double，整数值解码为 int64
type ProtobufDecoder struct {
	rootKey string
}

func NewProtobufDecoderWithOptions(options *Options) *ProtobufDecoder {
	return &ProtobufDecoder{rootKey: options.rootKey()}
}

func (d *ProtobufDecoder) Decode(data []byte) ([]table.Record, error) {
	var doc structpb.Struct
	if err := proto.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "proto.Unmarshal failed")
	}
	if len(doc.GetFields()) == 0 {
		return nil, nil
	}

	root := doc.AsMap()
	if rows, ok := root[d.rootKey].([]any); ok {
		for _, row := range rows {
			if m, ok := row.(map[string]any); ok {
				for k, v := range m {
					m[k] = integral(v)
				}
			}
		}
	}
	return extract(root, d.rootKey)
}

func (d *ProtobufDecoder) Encode(records []table.Record) ([]byte, error) {
	columns := make([]any, 0)
	for _, c := range columnsOf(records) {
		columns = append(columns, c)
	}
	rows := make([]any, 0, len(records))
	for _, r := range records {
		row := make(map[string]any, r.Len())
		for _, k := range r.Keys() {
			v, _ := r.Get(k)
			row[k] = toStructValue(native(v))
		}
		rows = append(rows, row)
	}

	doc, err := structpb.NewStruct(map[string]any{
		ColumnsKey: columns,
		d.rootKey:  rows,
	})
	if err != nil {
		return nil, errors.Wrap(err, "structpb.NewStruct failed")
	}
	out, err := proto.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "proto.Marshal failed")
	}
	return out, nil
}

// toStructValue structpb 只接受部分 Go 类型，其它整数类型统一转成 float64
func toStructValue(v any) any {
	switch x := v.(type) {
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}
