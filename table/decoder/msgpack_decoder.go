package decoder

import (
	"bytes"

	"github.com/hatlonely/pipesize/table"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// MsgPackDecoder MessagePack 数据快照，按流式解码保留 map 的 key 顺序
type MsgPackDecoder struct {
	rootKey string
}

func NewMsgPackDecoderWithOptions(options *Options) *MsgPackDecoder {
	return &MsgPackDecoder{rootKey: options.rootKey()}
}

func (d *MsgPackDecoder) Decode(data []byte) ([]table.Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	root, err := readMsgPackValue(dec)
	if err != nil {
		return nil, errors.Wrap(err, "decode msgpack failed")
	}
	return extract(root, d.rootKey)
}

func readMsgPackValue(dec *msgpack.Decoder) (any, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}

	switch {
	case msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		obj := newObject()
		for i := 0; i < n; i++ {
			k, err := dec.DecodeString()
			if err != nil {
				return nil, err
			}
			v, err := readMsgPackValue(dec)
			if err != nil {
				return nil, err
			}
			obj.set(k, v)
		}
		return obj, nil
	case msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		list := make([]any, 0, n)
		for i := 0; i < n; i++ {
			v, err := readMsgPackValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	default:
		return dec.DecodeInterface()
	}
}

// Encode 输出 {"columns": [...], rootKey: [{...}, ...]}，每条记录按列顺序编码
func (d *MsgPackDecoder) Encode(records []table.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)

	err := func() error {
		if err := enc.EncodeMapLen(2); err != nil {
			return err
		}
		if err := enc.EncodeString(ColumnsKey); err != nil {
			return err
		}
		if err := enc.Encode(columnsOf(records)); err != nil {
			return err
		}
		if err := enc.EncodeString(d.rootKey); err != nil {
			return err
		}
		if err := enc.EncodeArrayLen(len(records)); err != nil {
			return err
		}
		for _, r := range records {
			if err := enc.EncodeMapLen(r.Len()); err != nil {
				return err
			}
			for _, k := range r.Keys() {
				v, _ := r.Get(k)
				if err := enc.EncodeString(k); err != nil {
					return err
				}
				if err := enc.Encode(native(v)); err != nil {
					return err
				}
			}
		}
		return nil
	}()
	if err != nil {
		return nil, errors.Wrap(err, "encode msgpack failed")
	}
	return buf.Bytes(), nil
}
