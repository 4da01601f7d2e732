package hydraulics

import "gonum.org/v1/gonum/floats/scalar"

const (
	WaterDensity = 1000.0
	Gravity      = 9.80665
	pascalPerBar = 100000.0
)

// PressureDrop Darcy-Weisbach 压降 (bar)，保留 4 位小数
// length 单位 m，d 单位 mm，v 单位 m/s
func PressureDrop(f, length, d, v float64) (float64, error) {
	if !finite(f) || f <= 0 {
		return 0, &FrictionFactorDomainError{Step: "frictionFactor", Arg: f}
	}
	if err := positive("length", length); err != nil {
		return 0, err
	}
	if err := positive("diameter", d); err != nil {
		return 0, err
	}
	if err := nonNegative("velocity", v); err != nil {
		return 0, err
	}
	dp := f * length * WaterDensity * v * v / (2 * d / 1000) / pascalPerBar
	if !finite(dp) {
		return 0, &InvalidDimensionError{Field: "pressureDrop", Value: dp}
	}
	return scalar.RoundEven(dp, 4), nil
}

// Headloss 依次计算雷诺数、摩擦系数和压降
func Headloss(epsilon, length, d, v float64) (float64, error) {
	re, err := Reynolds(d, v)
	if err != nil {
		return 0, err
	}
	f, err := FrictionFactor(epsilon, d, float64(re))
	if err != nil {
		return 0, err
	}
	return PressureDrop(f, length, d, v)
}

// HeadMetres 将压降换算为水柱高度 (m)
func HeadMetres(pressureBar float64) float64 {
	if !finite(pressureBar) {
		return 0
	}
	return scalar.RoundEven(pressureBar*pascalPerBar/(WaterDensity*Gravity), 4)
}
