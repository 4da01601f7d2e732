package table

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record 参考表中的一行，列名到值的有序映射
// 值可以是 nil、string、bool、整数、浮点数或 json.Number
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord 按 kv 交替的参数创建记录，如 NewRecord("DN", "50", "ANSI", 52.5)
// 重复的列名保留第一次出现的位置，值以最后一次为准
func NewRecord(kvs ...any) Record {
	r := Record{values: make(map[string]any, len(kvs)/2)}
	for i := 0; i+1 < len(kvs); i += 2 {
		k, ok := kvs[i].(string)
		if !ok {
			continue
		}
		r.Set(k, kvs[i+1])
	}
	return r
}

// Set 设置列值，仅供构建记录时使用，记录加入 Table 之后不再修改
func (r *Record) Set(key string, value any) {
	if r.values == nil {
		r.values = map[string]any{}
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Keys 返回列名，保持原始顺序
func (r Record) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

func (r Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r Record) Len() int {
	return len(r.keys)
}

// Map 返回值的拷贝，不保证顺序
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

func (r Record) clone() Record {
	return Record{keys: r.Keys(), values: r.Map()}
}

// MarshalJSON 按列顺序输出
func (r Record) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// Truthy 判断值是否有效：nil、空串、0、false 视为无效
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f != 0
		}
		return x != ""
	case float64:
		return x != 0
	case float32:
		return x != 0
	case int:
		return x != 0
	case int8:
		return x != 0
	case int16:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case uint:
		return x != 0
	case uint8:
		return x != 0
	case uint16:
		return x != 0
	case uint32:
		return x != 0
	case uint64:
		return x != 0
	default:
		return true
	}
}

// FormatValue 将值转成用于比较和展示的字符串形式
// 整数的浮点数保留 ".0"，与数据文件中的写法保持一致
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return formatNumber(x)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case float64:
		return formatFloat(x, 64)
	case float32:
		return formatFloat(float64(x), 32)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// formatNumber 整数写法按整数输出，其余按浮点数输出，"50.50" 和 "1e2" 分别得到 "50.5" 和 "100.0"
func formatNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if !strings.ContainsAny(n.String(), ".eE") {
		// 超出 int64 的整数
		return n.String()
	}
	if f, err := n.Float64(); err == nil {
		return formatFloat(f, 64)
	}
	return n.String()
}

func formatFloat(f float64, bits int) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, bits)
	}
	s := strconv.FormatFloat(f, 'f', -1, bits)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ToFloat 将数值或数值字符串转成 float64
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}
