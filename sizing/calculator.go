package sizing

import (
	"context"
	"fmt"
	"time"

	"github.com/hatlonely/pipesize/hydraulics"
	"github.com/hatlonely/pipesize/log"
	"github.com/hatlonely/pipesize/log/logger"
	"github.com/hatlonely/pipesize/table"
	"github.com/hatlonely/pipesize/table/loader"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultRoughness = 0.045
	DefaultLength    = 100.0
)

type CalculatorOptions struct {
	// Table 参考表数据源
	Table loader.Options `cfg:"table"`

	// Roughness 默认绝对粗糙度 (mm)，请求未指定时使用
	Roughness float64 `cfg:"roughness" def:"0.045" validate:"gt=0"`

	// Length 默认管长 (m)，请求未指定时使用
	Length float64 `cfg:"length" def:"100" validate:"gt=0"`

	Logger *log.Options `cfg:"logger"`

	EnableMetrics bool `cfg:"enableMetrics"`
	EnableTracing bool `cfg:"enableTracing"`

	// Name 指标名前缀，同时作为 tracer 和日志的 component
	Name string `cfg:"name" def:"pipesize" validate:"required"`
}

type Option func(*Calculator)

// WithTable 使用已加载的参考表，不再从 options.Table 加载
func WithTable(t *table.Table) Option {
	return func(c *Calculator) {
		c.table = t
	}
}

func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(c *Calculator) {
		c.registerer = registerer
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Calculator) {
		c.logger = l
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Calculator) {
		c.tracerProvider = tp
	}
}

// Request 一次计算请求，Roughness 和 Length 为 0 时使用计算器的默认值
type Request struct {
	Query     table.Query        `json:"query"`
	Driving   hydraulics.Driving `json:"driving"`
	Velocity  float64            `json:"velocity,omitempty"`
	Flow      float64            `json:"flow,omitempty"`
	Roughness float64            `json:"roughness,omitempty"`
	Length    float64            `json:"length,omitempty"`
}

// Selectors 参考表的可选项，Dimensions 为单位制列，Standards 为标准列
type Selectors struct {
	Dimensions []string `json:"dimensions"`
	Standards  []string `json:"standards"`
}

// Calculator 组合参考表查询和水力计算
// 参考表只读，Calculator 可以被多个 goroutine 同时使用
type Calculator struct {
	table     *table.Table
	roughness float64
	length    float64
	name      string

	logger         logger.Logger
	metrics        *Metrics
	tracer         trace.Tracer
	registerer     prometheus.Registerer
	tracerProvider trace.TracerProvider
}

func NewCalculatorWithOptions(ctx context.Context, options *CalculatorOptions, opts ...Option) (*Calculator, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}

	c := &Calculator{
		roughness: options.Roughness,
		length:    options.Length,
		name:      options.Name,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.roughness <= 0 {
		c.roughness = DefaultRoughness
	}
	if c.length <= 0 {
		c.length = DefaultLength
	}
	if c.name == "" {
		c.name = "pipesize"
	}

	if c.logger == nil {
		l, err := log.NewLoggerWithOptions(options.Logger)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to create logger")
		}
		c.logger = l
	}
	c.logger = c.logger.WithGroup("calculator")

	if c.table == nil {
		t, err := loader.LoadTable(ctx, &options.Table)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to load pipe table")
		}
		c.table = t
	}

	if options.EnableMetrics {
		m, err := NewMetrics(c.name, c.registerer)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to create metrics")
		}
		c.metrics = m
	}

	if options.EnableTracing {
		tp := c.tracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
		c.tracer = tp.Tracer(fmt.Sprintf("sizing.%s", c.name))
	}

	return c, nil
}

func (c *Calculator) Table() *table.Table {
	return c.table
}

// Roughness 默认绝对粗糙度 (mm)
func (c *Calculator) Roughness() float64 {
	return c.roughness
}

// Length 默认管长 (m)
func (c *Calculator) Length() float64 {
	return c.length
}

// Selectors 返回单位制列和标准列
func (c *Calculator) Selectors(ctx context.Context) (*Selectors, error) {
	var s *Selectors
	err := c.observe(ctx, "selectors", nil, func(ctx context.Context) error {
		dims, err := c.table.DimensionColumns()
		if err != nil {
			return err
		}
		standards, err := c.table.StandardColumns()
		if err != nil {
			return err
		}
		s = &Selectors{Dimensions: dims, Standards: standards}
		return nil
	})
	return s, err
}

// Sizes 返回单位制列下的全部公称尺寸
func (c *Calculator) Sizes(ctx context.Context, dimension string) ([]string, error) {
	var sizes []string
	err := c.observe(ctx, "sizes", []attribute.KeyValue{attribute.String("dimension", dimension)}, func(ctx context.Context) error {
		var err error
		sizes, err = c.table.DistinctValues(dimension)
		return err
	})
	return sizes, err
}

// Resolve 查询内径 (mm)
func (c *Calculator) Resolve(ctx context.Context, q table.Query) (float64, error) {
	var d float64
	err := c.observe(ctx, "resolve", queryAttributes(q), func(ctx context.Context) error {
		var err error
		d, err = c.table.Resolve(q)
		return err
	})
	return d, err
}

// Calculate 查询内径后完成流量、雷诺数、摩擦系数和压降计算
func (c *Calculator) Calculate(ctx context.Context, req *Request) (*hydraulics.Result, error) {
	if req == nil {
		return nil, errors.New("request is nil")
	}

	var res *hydraulics.Result
	attrs := append(queryAttributes(req.Query), attribute.String("driving", req.Driving.String()))
	err := c.observe(ctx, "calculate", attrs, func(ctx context.Context) error {
		d, err := c.table.Resolve(req.Query)
		if err != nil {
			return err
		}

		hr := &hydraulics.Request{
			Diameter:  d,
			Driving:   req.Driving,
			Velocity:  req.Velocity,
			Flow:      req.Flow,
			Roughness: req.Roughness,
			Length:    req.Length,
		}
		if hr.Roughness == 0 {
			hr.Roughness = c.roughness
		}
		if hr.Length == 0 {
			hr.Length = c.length
		}

		res, err = hydraulics.Solve(hr)
		if err != nil {
			return err
		}

		if c.metrics != nil && !res.NoFlow {
			c.metrics.reynolds.Observe(float64(res.Reynolds))
		}
		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(
				attribute.Float64("diameter_mm", res.Diameter),
				attribute.Int64("reynolds", res.Reynolds),
				attribute.Float64("pressure_drop_bar", res.PressureDrop),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func queryAttributes(q table.Query) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("dimension", q.Dimension),
		attribute.String("size", q.Size),
		attribute.String("standard", q.Standard),
	}
}

// StatusOf 将错误归类为指标的 status 标签
func StatusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, table.ErrNoMatch):
		return "no_match"
	case errors.Is(err, table.ErrEmptyTable):
		return "empty_table"
	case errors.Is(err, table.ErrMalformedValue):
		return "malformed_value"
	case errors.Is(err, hydraulics.ErrInvalidDimension):
		return "invalid_dimension"
	case errors.Is(err, hydraulics.ErrFrictionFactorDomain):
		return "domain_error"
	default:
		return "error"
	}
}

func (c *Calculator) observe(ctx context.Context, operation string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	start := time.Now()

	var span trace.Span
	if c.tracer != nil {
		ctx, span = c.tracer.Start(ctx, "sizing."+operation,
			trace.WithAttributes(append([]attribute.KeyValue{
				attribute.String("component", c.name),
				attribute.String("operation", operation),
			}, attrs...)...),
		)
		defer span.End()
	}

	err := fn(ctx)
	duration := time.Since(start)
	status := StatusOf(err)

	if span != nil {
		span.SetAttributes(attribute.String("status", status))
		// 查不到记录是正常结果，不标记为错误
		if err != nil && status != "no_match" {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	if c.metrics != nil {
		c.metrics.calculations.WithLabelValues(operation, status).Inc()
		c.metrics.duration.WithLabelValues(operation).Observe(duration.Seconds())
	}

	switch {
	case err == nil || status == "no_match":
		c.logger.DebugContext(ctx, "operation completed",
			"operation", operation,
			"status", status,
			"duration", duration,
		)
	default:
		c.logger.WarnContext(ctx, "operation failed",
			"operation", operation,
			"status", status,
			"duration", duration,
			"error", err.Error(),
		)
	}

	return err
}
