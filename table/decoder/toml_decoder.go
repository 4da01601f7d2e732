package decoder

import (
	"github.com/BurntSushi/toml"
	"github.com/hatlonely/pipesize/table"
	"github.com/pkg/errors"
)

// TomlDecoder TOML 格式，记录为数组表
//
//	[[pipe_sizes_lib]]
//	DN = "50"
//	SCH40 = 52.5
//
// 列顺序取自 MetaData.Keys 中的出现顺序
type TomlDecoder struct {
	rootKey string
}

func NewTomlDecoderWithOptions(options *Options) *TomlDecoder {
	return &TomlDecoder{rootKey: options.rootKey()}
}

func (d *TomlDecoder) Decode(data []byte) ([]table.Record, error) {
	var doc map[string]any
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, errors.Wrap(err, "toml.Decode failed")
	}

	raw, ok := doc[d.rootKey]
	if !ok {
		return nil, errors.Errorf("root key %q not found", d.rootKey)
	}

	var rows []map[string]any
	switch x := raw.(type) {
	case []map[string]any:
		rows = x
	case []any:
		for i, v := range x {
			m, ok := v.(map[string]any)
			if !ok {
				return nil, errors.Errorf("row %d: record is not a table, got %T", i, v)
			}
			rows = append(rows, m)
		}
	default:
		return nil, errors.Errorf("%q is not an array of tables, got %T", d.rootKey, raw)
	}

	columns := toStrings(doc[ColumnsKey])
	seen := map[string]bool{}
	for _, c := range columns {
		seen[c] = true
	}
	for _, k := range md.Keys() {
		if len(k) == 2 && k[0] == d.rootKey && !seen[k[1]] {
			seen[k[1]] = true
			columns = append(columns, k[1])
		}
	}

	records := make([]table.Record, 0, len(rows))
	for i, row := range rows {
		r, err := toRecord(row, columns)
		if err != nil {
			return nil, errors.WithMessagef(err, "row %d", i)
		}
		records = append(records, r)
	}
	return records, nil
}
