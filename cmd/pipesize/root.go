package main

import (
	"context"
	"os"

	"github.com/hatlonely/pipesize/cfg"
	"github.com/hatlonely/pipesize/log"
	"github.com/hatlonely/pipesize/ref"
	"github.com/hatlonely/pipesize/sizing"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type rootFlags struct {
	config   string
	table    string
	rootKey  string
	format   string
	logLevel string
	strict   bool
	metrics  bool
	trace    bool
}

type app struct {
	flags rootFlags

	calc     *sizing.Calculator
	registry *prometheus.Registry
	tp       *sdktrace.TracerProvider
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "pipesize",
		Short:         "Pipe sizing: flow, velocity, Reynolds number and pressure drop",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setupLogger()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.shutdown(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.flags.config, "config", "c", "", "config file (json, yaml, toml or ini)")
	flags.StringVarP(&a.flags.table, "table", "t", "", "pipe table file, overrides the config")
	flags.StringVar(&a.flags.rootKey, "root-key", "", "key of the record array in the table file")
	flags.StringVarP(&a.flags.format, "output", "o", "text", "output format: text or json")
	flags.StringVar(&a.flags.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.BoolVar(&a.flags.strict, "strict", false, "reject tables with conflicting or malformed entries")
	flags.BoolVar(&a.flags.metrics, "metrics", false, "print prometheus metrics to stderr on exit")
	flags.BoolVar(&a.flags.trace, "trace", false, "print trace spans to stderr on exit")

	rootCmd.AddCommand(
		a.columnsCommand(),
		a.sizesCommand(),
		a.resolveCommand(),
		a.calcCommand(),
		a.validateCommand(),
		a.convertCommand(),
	)

	return rootCmd
}

func (a *app) setupLogger() error {
	l, err := log.NewLoggerWithOptions(&log.Options{Level: a.flags.logLevel, Format: "text"})
	if err != nil {
		return errors.WithMessage(err, "invalid log level")
	}
	log.SetDefault(l)
	return nil
}

// options 读取配置文件，命令行参数覆盖配置
func (a *app) options() (*sizing.CalculatorOptions, error) {
	options := &sizing.CalculatorOptions{}
	if a.flags.config != "" {
		if err := cfg.Load(a.flags.config, options); err != nil {
			return nil, errors.WithMessagef(err, "load config %s failed", a.flags.config)
		}
	}

	if a.flags.table != "" {
		fileOptions := map[string]any{"filePath": a.flags.table}
		if a.flags.rootKey != "" {
			fileOptions["rootKey"] = a.flags.rootKey
		}
		options.Table.Loader = ref.TypeOptions{Type: "FileLoader", Options: fileOptions}
	}
	if options.Table.Loader.Type == "" {
		return nil, errors.New("no pipe table given, use --table or a config file")
	}
	if a.flags.strict {
		options.Table.Strict = true
	}
	options.EnableMetrics = options.EnableMetrics || a.flags.metrics
	options.EnableTracing = options.EnableTracing || a.flags.trace

	if err := cfg.SetDefaults(options); err != nil {
		return nil, err
	}
	if err := cfg.ValidateStruct(options); err != nil {
		return nil, errors.WithMessage(err, "invalid options")
	}
	return options, nil
}

// calculator 首次使用时加载参考表
func (a *app) calculator(ctx context.Context) (*sizing.Calculator, error) {
	if a.calc != nil {
		return a.calc, nil
	}

	options, err := a.options()
	if err != nil {
		return nil, err
	}

	var opts []sizing.Option
	if options.EnableMetrics {
		a.registry = prometheus.NewRegistry()
		opts = append(opts, sizing.WithRegisterer(a.registry))
	}
	if options.EnableTracing {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, errors.Wrap(err, "create trace exporter failed")
		}
		a.tp = sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		opts = append(opts, sizing.WithTracerProvider(a.tp))
	}

	c, err := sizing.NewCalculatorWithOptions(ctx, options, opts...)
	if err != nil {
		return nil, err
	}
	a.calc = c
	return c, nil
}

func (a *app) shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.tp != nil {
		if err := a.tp.Shutdown(ctx); err != nil {
			return errors.Wrap(err, "shutdown tracer provider failed")
		}
	}
	if a.registry != nil {
		families, err := a.registry.Gather()
		if err != nil {
			return errors.Wrap(err, "gather metrics failed")
		}
		enc := expfmt.NewEncoder(os.Stderr, expfmt.FmtText)
		for _, mf := range families {
			if err := enc.Encode(mf); err != nil {
				return errors.Wrap(err, "encode metrics failed")
			}
		}
	}
	return nil
}
