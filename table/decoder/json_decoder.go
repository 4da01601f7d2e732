package decoder

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/hatlonely/pipesize/table"
	"github.com/pkg/errors"
)

// JsonDecoder JSON 格式，数字保留原始写法（json.Number），对象保留 key 顺序
//
//	{"pipe_sizes_lib": [{"DN": "50", "NPS": "2", "SCH40": 52.5}, ...]}
type JsonDecoder struct {
	rootKey string
	indent  string
}

type JsonDecoderOptions struct {
	RootKey string `cfg:"rootKey" def:"pipe_sizes_lib"`
	Indent  string `cfg:"indent"`
}

func NewJsonDecoderWithOptions(options *JsonDecoderOptions) *JsonDecoder {
	if options == nil {
		options = &JsonDecoderOptions{}
	}
	return &JsonDecoder{
		rootKey: (&Options{RootKey: options.RootKey}).rootKey(),
		indent:  options.Indent,
	}
}

func (d *JsonDecoder) Decode(data []byte) ([]table.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, err := readJSONValue(dec)
	if err != nil {
		return nil, errors.Wrap(err, "decode json failed")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decode json failed: unexpected data after top-level value")
	}

	return extract(root, d.rootKey)
}

func readJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := newObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				k, ok := kt.(string)
				if !ok {
					return nil, errors.Errorf("unexpected object key %v", kt)
				}
				v, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj.set(k, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			list := []any{}
			for dec.More() {
				v, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		default:
			return nil, errors.Errorf("unexpected delimiter %v", t)
		}
	default:
		// string, json.Number, bool, nil
		return tok, nil
	}
}

// Encode 按列顺序输出 {"columns": [...], rootKey: [...]}
func (d *JsonDecoder) Encode(records []table.Record) ([]byte, error) {
	if records == nil {
		records = []table.Record{}
	}
	columns, err := json.Marshal(columnsOf(records))
	if err != nil {
		return nil, errors.Wrap(err, "json.Marshal failed")
	}
	rows, err := json.Marshal(records)
	if err != nil {
		return nil, errors.Wrap(err, "json.Marshal failed")
	}
	key, _ := json.Marshal(d.rootKey)

	var buf bytes.Buffer
	buf.WriteString(`{"columns":`)
	buf.Write(columns)
	buf.WriteByte(',')
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(rows)
	buf.WriteByte('}')

	if d.indent == "" {
		return buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", d.indent); err != nil {
		return nil, errors.Wrap(err, "json.Indent failed")
	}
	return out.Bytes(), nil
}
