package decoder

import (
	"sort"

	"github.com/hatlonely/pipesize/table"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BsonDecoder BSON 数据快照，顶层必须是文档，bson.D 保留字段顺序
type BsonDecoder struct {
	rootKey string
}

func NewBsonDecoderWithOptions(options *Options) *BsonDecoder {
	return &BsonDecoder{rootKey: options.rootKey()}
}

func (d *BsonDecoder) Decode(data []byte) ([]table.Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var doc bson.D
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "bson.Unmarshal failed")
	}
	return extract(fromBSON(doc), d.rootKey)
}

func fromBSON(v any) any {
	switch x := v.(type) {
	case primitive.D:
		obj := newObject()
		for _, e := range x {
			obj.set(e.Key, fromBSON(e.Value))
		}
		return obj
	case primitive.M:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := newObject()
		for _, k := range keys {
			obj.set(k, fromBSON(x[k]))
		}
		return obj
	case primitive.A:
		list := make([]any, len(x))
		for i, e := range x {
			list[i] = fromBSON(e)
		}
		return list
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}

func (d *BsonDecoder) Encode(records []table.Record) ([]byte, error) {
	columns := primitive.A{}
	for _, c := range columnsOf(records) {
		columns = append(columns, c)
	}

	rows := make(primitive.A, 0, len(records))
	for _, r := range records {
		row := make(bson.D, 0, r.Len())
		for _, k := range r.Keys() {
			v, _ := r.Get(k)
			row = append(row, bson.E{Key: k, Value: native(v)})
		}
		rows = append(rows, row)
	}

	out, err := bson.Marshal(bson.D{
		{Key: ColumnsKey, Value: columns},
		{Key: d.rootKey, Value: rows},
	})
	if err != nil {
		return nil, errors.Wrap(err, "bson.Marshal failed")
	}
	return out, nil
}
