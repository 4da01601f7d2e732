package hydraulics

import (
	"fmt"
	"strings"
)

// Driving 由用户输入、用于推导另一个量的物理量
type Driving int

const (
	DrivingVelocity Driving = iota
	DrivingFlow
)

func (d Driving) String() string {
	switch d {
	case DrivingVelocity:
		return "velocity"
	case DrivingFlow:
		return "flow"
	default:
		return fmt.Sprintf("Driving(%d)", int(d))
	}
}

// ParseDriving 解析 "velocity" / "flow"，大小写不敏感
func ParseDriving(s string) (Driving, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "velocity", "v", "":
		return DrivingVelocity, nil
	case "flow", "q":
		return DrivingFlow, nil
	default:
		return 0, fmt.Errorf("unknown driving quantity %q", s)
	}
}

func (d Driving) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Driving) UnmarshalText(text []byte) error {
	v, err := ParseDriving(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Request 一次计算的全部输入，Diameter 为已解析的内径 (mm)
// Driving 为 DrivingVelocity 时使用 Velocity，否则使用 Flow
type Request struct {
	Diameter  float64 `json:"diameter"`
	Driving   Driving `json:"driving"`
	Velocity  float64 `json:"velocity,omitempty"`
	Flow      float64 `json:"flow,omitempty"`
	Roughness float64 `json:"roughness"`
	Length    float64 `json:"length"`
}

type Result struct {
	Diameter       float64    `json:"diameter"`
	Velocity       float64    `json:"velocity"`
	Flow           float64    `json:"flow"`
	Reynolds       int64      `json:"reynolds"`
	Regime         FlowRegime `json:"regime"`
	FrictionFactor float64    `json:"frictionFactor"`
	PressureDrop   float64    `json:"pressureDrop"`
	Head           float64    `json:"head"`
	// NoFlow 流速为 0，摩擦系数和压降按 0 处理
	NoFlow bool `json:"noFlow,omitempty"`
}

// Solve 按 内径 -> 流速/流量 -> 雷诺数 -> 摩擦系数 -> 压降 的顺序计算
// 流量驱动时，后续步骤使用保留 2 位小数后的流速
func Solve(req *Request) (*Result, error) {
	if req == nil {
		return nil, &InvalidDimensionError{Field: "request"}
	}
	if err := positive("diameter", req.Diameter); err != nil {
		return nil, err
	}
	if err := positive("roughness", req.Roughness); err != nil {
		return nil, err
	}
	if err := positive("length", req.Length); err != nil {
		return nil, err
	}

	res := &Result{Diameter: req.Diameter}

	var err error
	switch req.Driving {
	case DrivingVelocity:
		res.Velocity = req.Velocity
		res.Flow, err = FlowFromVelocity(req.Diameter, req.Velocity)
		if err != nil {
			return nil, err
		}
	case DrivingFlow:
		res.Flow = req.Flow
		res.Velocity, err = VelocityFromFlow(req.Diameter, req.Flow)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown driving quantity %v", req.Driving)
	}

	res.Reynolds, err = Reynolds(req.Diameter, res.Velocity)
	if err != nil {
		return nil, err
	}
	res.Regime = Regime(res.Reynolds)

	if res.Velocity == 0 {
		res.NoFlow = true
		return res, nil
	}

	res.FrictionFactor, err = FrictionFactor(req.Roughness, req.Diameter, float64(res.Reynolds))
	if err != nil {
		return nil, err
	}
	res.PressureDrop, err = PressureDrop(res.FrictionFactor, req.Length, req.Diameter, res.Velocity)
	if err != nil {
		return nil, err
	}
	res.Head = HeadMetres(res.PressureDrop)
	return res, nil
}
