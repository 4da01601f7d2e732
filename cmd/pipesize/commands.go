package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hatlonely/pipesize/hydraulics"
	"github.com/hatlonely/pipesize/ref"
	"github.com/hatlonely/pipesize/sizing"
	"github.com/hatlonely/pipesize/table"
	"github.com/hatlonely/pipesize/table/decoder"
	"github.com/hatlonely/pipesize/table/loader"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) columnsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "List unit system and standard columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.calculator(cmd.Context())
			if err != nil {
				return err
			}
			s, err := c.Selectors(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), s)
		},
	}
}

func (a *app) sizesCommand() *cobra.Command {
	var dimension string
	cmd := &cobra.Command{
		Use:   "sizes",
		Short: "List nominal sizes of a unit system column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.calculator(cmd.Context())
			if err != nil {
				return err
			}
			if dimension == "" {
				s, err := c.Selectors(cmd.Context())
				if err != nil {
					return err
				}
				if len(s.Dimensions) == 0 {
					return errors.New("pipe table has no unit system column")
				}
				dimension = s.Dimensions[0]
			}
			sizes, err := c.Sizes(cmd.Context(), dimension)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), sizeList{Dimension: dimension, Sizes: sizes})
		},
	}
	cmd.Flags().StringVar(&dimension, "dim", "", "unit system column, defaults to the first one")
	return cmd
}

func addQueryFlags(cmd *cobra.Command, q *table.Query) {
	cmd.Flags().StringVar(&q.Dimension, "dim", "", "unit system column, e.g. DN")
	cmd.Flags().StringVar(&q.Size, "size", "", "nominal size, e.g. 50")
	cmd.Flags().StringVar(&q.Standard, "std", "", "standard column, e.g. SCH40")
	_ = cmd.MarkFlagRequired("dim")
	_ = cmd.MarkFlagRequired("size")
	_ = cmd.MarkFlagRequired("std")
}

func (a *app) resolveCommand() *cobra.Command {
	var q table.Query
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the inner diameter of a pipe size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.calculator(cmd.Context())
			if err != nil {
				return err
			}
			d, err := c.Resolve(cmd.Context(), q)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), resolved{Query: q, Diameter: d})
		},
	}
	addQueryFlags(cmd, &q)
	return cmd
}

func (a *app) calcCommand() *cobra.Command {
	req := &sizing.Request{}
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate flow or velocity, Reynolds number and pressure drop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.calculator(cmd.Context())
			if err != nil {
				return err
			}
			req.Driving = hydraulics.DrivingVelocity
			if cmd.Flags().Changed("flow") {
				req.Driving = hydraulics.DrivingFlow
			}
			res, err := c.Calculate(cmd.Context(), req)
			if err != nil {
				return err
			}
			length := req.Length
			if length == 0 {
				length = c.Length()
			}
			return a.render(cmd.OutOrStdout(), calculated{Query: req.Query, Length: length, Result: res})
		},
	}
	addQueryFlags(cmd, &req.Query)
	cmd.Flags().Float64Var(&req.Velocity, "velocity", 0, "velocity in m/s")
	cmd.Flags().Float64Var(&req.Flow, "flow", 0, "flow in m³/h")
	cmd.Flags().Float64Var(&req.Roughness, "roughness", 0, "absolute roughness in mm, defaults to the configured value")
	cmd.Flags().Float64Var(&req.Length, "length", 0, "pipe length in m, defaults to the configured value")
	cmd.MarkFlagsMutuallyExclusive("velocity", "flow")
	cmd.MarkFlagsOneRequired("velocity", "flow")
	return cmd
}

func (a *app) validateCommand() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the pipe table for conflicting or malformed entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return a.watch(cmd)
			}
			c, err := a.calculator(cmd.Context())
			if err != nil {
				return err
			}
			issues := table.Validate(c.Table())
			if err := a.render(cmd.OutOrStdout(), validated{Rows: c.Table().Len(), Issues: issues}); err != nil {
				return err
			}
			if len(issues) > 0 {
				return &table.IssuesError{Issues: issues}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-validate the table file whenever it changes, until interrupted")
	return cmd
}

// watch 每次表文件变化时重新校验，直到收到中断信号
func (a *app) watch(cmd *cobra.Command) error {
	options, err := a.options()
	if err != nil {
		return err
	}
	typeOptions := options.Table.Loader
	if typeOptions.Type != "FileLoader" || (typeOptions.Namespace != "" && typeOptions.Namespace != loader.Namespace) {
		return errors.Errorf("--watch needs a file table, got %s", typeOptions.Type)
	}
	fileOptions := &loader.FileLoaderOptions{}
	if err := ref.Decode(typeOptions.Options, fileOptions); err != nil {
		return errors.WithMessage(err, "invalid file loader options")
	}
	l, err := loader.NewFileLoaderWithOptions(fileOptions)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	err = l.OnChange(ctx, func(records []table.Record, err error) {
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "pipesize:", describe(err))
			return
		}
		t, err := loader.Build(ctx, loader.Records(records), options.Table.DimensionCount, false)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "pipesize:", describe(err))
			return
		}
		if err := a.render(out, validated{Rows: t.Len(), Issues: table.Validate(t)}); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "pipesize:", err)
		}
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

func (a *app) convertCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Write the pipe table in another format, chosen by the output file extension",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.calculator(cmd.Context())
			if err != nil {
				return err
			}
			d, err := decoder.ForFile(out, a.flags.rootKey)
			if err != nil {
				return err
			}
			enc, ok := d.(decoder.Encoder)
			if !ok {
				return errors.Errorf("format of %s is read only", out)
			}
			data, err := enc.Encode(c.Table().Records())
			if err != nil {
				return errors.WithMessage(err, "encode table failed")
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return errors.Wrap(err, "os.WriteFile failed")
			}
			return a.render(cmd.OutOrStdout(), converted{File: out, Rows: c.Table().Len()})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
