package hydraulics

import "math"

// KinematicViscosity 参考流体（常温水）的运动粘度，m²/s
const KinematicViscosity = 8.11e-7

const (
	LaminarLimit      = 2300
	TransitionalLimit = 4000
)

type FlowRegime string

const (
	RegimeNone         FlowRegime = "none"
	RegimeLaminar      FlowRegime = "laminar"
	RegimeTransitional FlowRegime = "transitional"
	RegimeTurbulent    FlowRegime = "turbulent"
)

// Reynolds 计算雷诺数并向上取整，d 单位 mm，v 单位 m/s
// v == 0 时返回 0
func Reynolds(d, v float64) (int64, error) {
	if err := positive("diameter", d); err != nil {
		return 0, err
	}
	if err := nonNegative("velocity", v); err != nil {
		return 0, err
	}
	re := math.Ceil(d * v / (1000 * KinematicViscosity))
	// float64(math.MaxInt64) 即 2^63，已无法转换为 int64
	if !finite(re) || re >= math.MaxInt64 {
		return 0, &InvalidDimensionError{Field: "reynolds", Value: re}
	}
	return int64(re), nil
}

func Regime(re int64) FlowRegime {
	switch {
	case re <= 0:
		return RegimeNone
	case re < LaminarLimit:
		return RegimeLaminar
	case re < TransitionalLimit:
		return RegimeTransitional
	default:
		return RegimeTurbulent
	}
}
