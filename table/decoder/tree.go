package decoder

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/hatlonely/pipesize/table"
	"github.com/pkg/errors"
)

// object 保留 key 顺序的对象
type object struct {
	keys   []string
	values map[string]any
}

func newObject() *object {
	return &object{values: map[string]any{}}
}

func (o *object) set(k string, v any) {
	if _, ok := o.values[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.values[k] = v
}

func (o *object) get(k string) (any, bool) {
	v, ok := o.values[k]
	return v, ok
}

// plain 将嵌套的 object 转成 map，记录中的值一般不会嵌套
func plain(v any) any {
	switch x := v.(type) {
	case *object:
		m := make(map[string]any, len(x.values))
		for k, v := range x.values {
			m[k] = plain(v)
		}
		return m
	case []any:
		out := make([]any, len(x))
		for i, v := range x {
			out[i] = plain(v)
		}
		return out
	default:
		return v
	}
}

// extract 从解码后的数据中取出记录
// root 可以是记录数组，也可以是包含 rootKey 的对象，对象中可选的 columns 声明列顺序
func extract(root any, rootKey string) ([]table.Record, error) {
	var rows any
	var columns []string

	switch x := root.(type) {
	case []any:
		rows = x
	case *object:
		v, ok := x.get(rootKey)
		if !ok {
			return nil, errors.Errorf("root key %q not found", rootKey)
		}
		rows = v
		if c, ok := x.get(ColumnsKey); ok {
			columns = toStrings(c)
		}
	case map[string]any:
		v, ok := x[rootKey]
		if !ok {
			return nil, errors.Errorf("root key %q not found", rootKey)
		}
		rows = v
		if c, ok := x[ColumnsKey]; ok {
			columns = toStrings(c)
		}
	case nil:
		return nil, nil
	default:
		return nil, errors.Errorf("unexpected root type %T", root)
	}

	list, ok := rows.([]any)
	if !ok {
		if rows == nil {
			return nil, nil
		}
		return nil, errors.Errorf("%q is not an array, got %T", rootKey, rows)
	}

	records := make([]table.Record, 0, len(list))
	for i, row := range list {
		r, err := toRecord(row, columns)
		if err != nil {
			return nil, errors.WithMessagef(err, "row %d", i)
		}
		records = append(records, r)
	}
	return records, nil
}

func toRecord(row any, columns []string) (table.Record, error) {
	var keys []string
	var values map[string]any

	switch x := row.(type) {
	case *object:
		keys, values = x.keys, x.values
	case map[string]any:
		values = x
		keys = make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	default:
		return table.Record{}, errors.Errorf("record is not an object, got %T", row)
	}

	var r table.Record
	for _, k := range orderKeys(keys, columns) {
		r.Set(k, plain(values[k]))
	}
	return r, nil
}

// orderKeys 先按 columns 声明的顺序，再按原有顺序
func orderKeys(keys []string, columns []string) []string {
	if len(columns) == 0 {
		return keys
	}
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}
	ordered := make([]string, 0, len(keys))
	for _, c := range columns {
		if present[c] {
			ordered = append(ordered, c)
			delete(present, c)
		}
	}
	for _, k := range keys {
		if present[k] {
			ordered = append(ordered, k)
		}
	}
	return ordered
}

func toStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, x := range list {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// columnsOf 所有记录的列名并集，按首次出现顺序
func columnsOf(records []table.Record) []string {
	var columns []string
	seen := map[string]bool{}
	for _, r := range records {
		for _, k := range r.Keys() {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	return columns
}

// native 将 json.Number 转成 int64 或 float64，供二进制格式编码
func native(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// integral 将整数值的浮点数转成 int64
func integral(v any) any {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return v
	}
	return int64(f)
}
