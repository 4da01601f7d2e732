package table

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrEmptyTable 参考表没有任何记录
	ErrEmptyTable = errors.New("pipe table is empty")
	// ErrNoMatch 查询合法但没有符合条件的记录，属于正常结果
	ErrNoMatch = errors.New("no matching pipe size")
	// ErrMalformedValue 记录中的值不是合法的内径
	ErrMalformedValue = errors.New("malformed table value")
)

// NoMatchError 没有记录同时满足尺寸和标准
type NoMatchError struct {
	Dimension string
	Size      string
	Standard  string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no matching pipe size: %s=%q with standard %q", e.Dimension, e.Size, e.Standard)
}

func (e *NoMatchError) Is(target error) bool {
	return target == ErrNoMatch
}

// MalformedValueError 匹配到的记录值无法作为内径使用
type MalformedValueError struct {
	Row    int
	Column string
	Value  any
	Reason string
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("malformed value %v in row %d column %q: %s", e.Value, e.Row, e.Column, e.Reason)
}

func (e *MalformedValueError) Is(target error) bool {
	return target == ErrMalformedValue
}
