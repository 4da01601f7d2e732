package hydraulics

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidDimension 几何或流动输入非正、非有限
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrFrictionFactorDomain 摩擦系数公式的对数或分母参数越界
	ErrFrictionFactorDomain = errors.New("friction factor domain error")
)

type InvalidDimensionError struct {
	Field string
	Value float64
}

func (e *InvalidDimensionError) Error() string {
	return fmt.Sprintf("invalid dimension: %s = %v", e.Field, e.Value)
}

func (e *InvalidDimensionError) Is(target error) bool {
	return target == ErrInvalidDimension
}

// FrictionFactorDomainError Step 为出错的计算步骤，Arg 为越界的参数值
type FrictionFactorDomainError struct {
	Step string
	Arg  float64
}

func (e *FrictionFactorDomainError) Error() string {
	return fmt.Sprintf("friction factor domain error at %s: %v", e.Step, e.Arg)
}

func (e *FrictionFactorDomainError) Is(target error) bool {
	return target == ErrFrictionFactorDomain
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func positive(field string, x float64) error {
	if !finite(x) || x <= 0 {
		return &InvalidDimensionError{Field: field, Value: x}
	}
	return nil
}

func nonNegative(field string, x float64) error {
	if !finite(x) || x < 0 {
		return &InvalidDimensionError{Field: field, Value: x}
	}
	return nil
}
