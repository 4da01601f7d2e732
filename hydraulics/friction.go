package hydraulics

import "math"

// FrictionFactor 用显式近似公式计算 Darcy 摩擦系数，不迭代 Colebrook-White 方程
// epsilon 为绝对粗糙度 (mm)，d 为内径 (mm)，re >= 1
func FrictionFactor(epsilon, d, re float64) (float64, error) {
	if err := positive("roughness", epsilon); err != nil {
		return 0, err
	}
	if err := positive("diameter", d); err != nil {
		return 0, err
	}
	if !finite(re) || re < 1 {
		return 0, &FrictionFactorDomainError{Step: "reynolds", Arg: re}
	}

	rr := epsilon / d

	x0 := rr/8.208 + 7.3357/re
	if !finite(x0) || x0 <= 0 {
		return 0, &FrictionFactorDomainError{Step: "a0", Arg: x0}
	}
	a0 := -0.79638 * math.Log(x0)
	a1 := re*rr + 9.3120665*a0

	x2 := a1 / 3.7099535 / re
	if !finite(x2) || x2 <= 0 {
		return 0, &FrictionFactorDomainError{Step: "a2", Arg: x2}
	}
	a2 := math.Log(x2)

	den := 8.128943*a0 - 0.86859209*a1*a2
	if !finite(den) || den == 0 {
		return 0, &FrictionFactorDomainError{Step: "denominator", Arg: den}
	}
	f := math.Pow((8.128943+a1)/den, 2)
	if !finite(f) || f <= 0 {
		return 0, &FrictionFactorDomainError{Step: "result", Arg: f}
	}
	return f, nil
}

// FullyRoughLimit Colebrook 方程在完全粗糙区的极限值
func FullyRoughLimit(epsilon, d float64) (float64, error) {
	if err := positive("roughness", epsilon); err != nil {
		return 0, err
	}
	if err := positive("diameter", d); err != nil {
		return 0, err
	}
	l := math.Log10(epsilon / d / 3.7)
	if l == 0 || !finite(l) {
		return 0, &FrictionFactorDomainError{Step: "log10", Arg: l}
	}
	return 0.25 / (l * l), nil
}
