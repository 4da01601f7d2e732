package table

import (
	"math"
)

// DefaultDimensionCount 前两列为单位制（如公制 DN 和英制 NPS），其余为标准列
const DefaultDimensionCount = 2

// Table 管道尺寸参考表，创建后只读，可被并发读取
type Table struct {
	records        []Record
	dimensionCount int
}

type Option func(*Table)

// WithDimensionCount 设置单位制列的数量
func WithDimensionCount(n int) Option {
	return func(t *Table) {
		if n >= 0 {
			t.dimensionCount = n
		}
	}
}

// New 创建参考表，记录会被拷贝，调用方之后的修改不影响表
func New(records []Record, opts ...Option) *Table {
	t := &Table{
		records:        make([]Record, len(records)),
		dimensionCount: DefaultDimensionCount,
	}
	for i, r := range records {
		t.records[i] = r.clone()
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Table) Len() int {
	return len(t.records)
}

// Records 返回记录拷贝
func (t *Table) Records() []Record {
	records := make([]Record, len(t.records))
	for i, r := range t.records {
		records[i] = r.clone()
	}
	return records
}

// Columns 返回第一条记录的列名
func (t *Table) Columns() ([]string, error) {
	if len(t.records) == 0 {
		return nil, ErrEmptyTable
	}
	return t.records[0].Keys(), nil
}

// DimensionColumns 返回单位制列
func (t *Table) DimensionColumns() ([]string, error) {
	columns, err := t.Columns()
	if err != nil {
		return nil, err
	}
	return columns[:min(t.dimensionCount, len(columns))], nil
}

// StandardColumns 返回标准列
func (t *Table) StandardColumns() ([]string, error) {
	columns, err := t.Columns()
	if err != nil {
		return nil, err
	}
	return columns[min(t.dimensionCount, len(columns)):], nil
}

// DistinctValues 返回某列去重后的字符串值，保持首次出现的顺序，跳过空值和缺失
func (t *Table) DistinctValues(column string) ([]string, error) {
	if len(t.records) == 0 {
		return nil, ErrEmptyTable
	}

	values := []string{}
	seen := map[string]struct{}{}
	for _, r := range t.records {
		v, ok := r.Get(column)
		if !ok || !Truthy(v) {
			continue
		}
		s := FormatValue(v)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		values = append(values, s)
	}
	return values, nil
}

// ResolveDiameter 按表中顺序查找第一条 dimension 列等于 size 且 standard 列有值的记录，返回内径（mm）
func (t *Table) ResolveDiameter(dimension, size, standard string) (float64, error) {
	if len(t.records) == 0 {
		return 0, ErrEmptyTable
	}

	for i, r := range t.records {
		dv, ok := r.Get(dimension)
		if !ok || FormatValue(dv) != size {
			continue
		}
		sv, ok := r.Get(standard)
		if !ok || !Truthy(sv) {
			continue
		}
		return diameterOf(i, standard, sv)
	}

	return 0, &NoMatchError{Dimension: dimension, Size: size, Standard: standard}
}

func diameterOf(row int, column string, v any) (float64, error) {
	d, ok := ToFloat(v)
	if !ok {
		return 0, &MalformedValueError{Row: row, Column: column, Value: v, Reason: "not a number"}
	}
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return 0, &MalformedValueError{Row: row, Column: column, Value: v, Reason: "diameter must be positive and finite"}
	}
	return d, nil
}

// Query 管道尺寸查询
type Query struct {
	Dimension string `cfg:"dimension" json:"dimension" validate:"required"`
	Size      string `cfg:"size" json:"size" validate:"required"`
	Standard  string `cfg:"standard" json:"standard" validate:"required"`
}

func (t *Table) Resolve(q Query) (float64, error) {
	return t.ResolveDiameter(q.Dimension, q.Size, q.Standard)
}
