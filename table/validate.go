package table

import (
	"fmt"
)

type IssueKind string

const (
	// IssueConflict 同一单位制下相同尺寸在同一标准中对应不同内径，查询时只会命中第一条
	IssueConflict IssueKind = "conflict"
	// IssueMalformed 标准列的值不是正数
	IssueMalformed IssueKind = "malformed"
)

// Issue 表数据一致性问题
type Issue struct {
	Kind      IssueKind `json:"kind"`
	Row       int       `json:"row"`
	FirstRow  int       `json:"firstRow,omitempty"`
	Dimension string    `json:"dimension,omitempty"`
	Size      string    `json:"size,omitempty"`
	Standard  string    `json:"standard"`
	Value     any       `json:"value"`
}

func (i Issue) String() string {
	switch i.Kind {
	case IssueConflict:
		return fmt.Sprintf("row %d: %s=%q %s=%v conflicts with row %d", i.Row, i.Dimension, i.Size, i.Standard, i.Value, i.FirstRow)
	default:
		return fmt.Sprintf("row %d: %s=%v is not a positive number", i.Row, i.Standard, i.Value)
	}
}

// Validate 检查表数据，返回发现的问题，表为空或无问题时返回 nil
func Validate(t *Table) []Issue {
	dimensions, err := t.DimensionColumns()
	if err != nil {
		return nil
	}
	standards, _ := t.StandardColumns()

	var issues []Issue

	for i, r := range t.records {
		for _, s := range standards {
			v, ok := r.Get(s)
			if !ok || !Truthy(v) {
				continue
			}
			if _, err := diameterOf(i, s, v); err != nil {
				issues = append(issues, Issue{Kind: IssueMalformed, Row: i, Standard: s, Value: v})
			}
		}
	}

	type pairKey struct{ dimension, size, standard string }
	type firstSeen struct {
		row      int
		diameter float64
	}
	seen := map[pairKey]firstSeen{}

	for _, dim := range dimensions {
		for i, r := range t.records {
			dv, ok := r.Get(dim)
			if !ok || !Truthy(dv) {
				continue
			}
			size := FormatValue(dv)
			for _, s := range standards {
				v, ok := r.Get(s)
				if !ok || !Truthy(v) {
					continue
				}
				d, err := diameterOf(i, s, v)
				if err != nil {
					continue
				}
				k := pairKey{dim, size, s}
				first, ok := seen[k]
				if !ok {
					seen[k] = firstSeen{row: i, diameter: d}
					continue
				}
				if first.diameter != d {
					issues = append(issues, Issue{
						Kind:      IssueConflict,
						Row:       i,
						FirstRow:  first.row,
						Dimension: dim,
						Size:      size,
						Standard:  s,
						Value:     v,
					})
				}
			}
		}
	}

	return issues
}

// IssuesError 严格模式下加载的表存在问题
type IssuesError struct {
	Issues []Issue
}

func (e *IssuesError) Error() string {
	switch len(e.Issues) {
	case 0:
		return "pipe table has no issues"
	case 1:
		return "pipe table has 1 issue: " + e.Issues[0].String()
	}
	return fmt.Sprintf("pipe table has %d issues, first: %s", len(e.Issues), e.Issues[0].String())
}
