package hydraulics

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

const secondsPerHour = 3600

// area 管道内截面积，d 单位 mm，返回 m²
func area(d float64) float64 {
	r := d / 2000
	return math.Pi * r * r
}

// FlowFromVelocity 由流速 v (m/s) 计算流量 (m³/h)，保留 2 位小数
func FlowFromVelocity(d, v float64) (float64, error) {
	if err := positive("diameter", d); err != nil {
		return 0, err
	}
	if err := nonNegative("velocity", v); err != nil {
		return 0, err
	}
	q := area(d) * v * secondsPerHour
	if !finite(q) {
		return 0, &InvalidDimensionError{Field: "flow", Value: q}
	}
	return scalar.RoundEven(q, 2), nil
}

// VelocityFromFlow 由流量 q (m³/h) 计算流速 (m/s)，保留 2 位小数
func VelocityFromFlow(d, q float64) (float64, error) {
	if err := positive("diameter", d); err != nil {
		return 0, err
	}
	if err := nonNegative("flow", q); err != nil {
		return 0, err
	}
	a := area(d)
	if a <= 0 {
		// d 极小时面积下溢为 0
		return 0, &InvalidDimensionError{Field: "diameter", Value: d}
	}
	v := q / (a * secondsPerHour)
	if !finite(v) {
		return 0, &InvalidDimensionError{Field: "velocity", Value: v}
	}
	return scalar.RoundEven(v, 2), nil
}
