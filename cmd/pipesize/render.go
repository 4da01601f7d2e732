package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/hatlonely/pipesize/hydraulics"
	"github.com/hatlonely/pipesize/sizing"
	"github.com/hatlonely/pipesize/table"
	"github.com/pkg/errors"
)

type sizeList struct {
	Dimension string   `json:"dimension"`
	Sizes     []string `json:"sizes"`
}

type resolved struct {
	Query    table.Query `json:"query"`
	Diameter float64     `json:"diameter"`
}

type calculated struct {
	Query  table.Query        `json:"query"`
	Length float64            `json:"length"`
	Result *hydraulics.Result `json:"result"`
}

type validated struct {
	Rows   int           `json:"rows"`
	Issues []table.Issue `json:"issues"`
}

type converted struct {
	File string `json:"file"`
	Rows int    `json:"rows"`
}

func (a *app) render(w io.Writer, v any) error {
	switch strings.ToLower(a.flags.format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "text", "":
		return renderText(w, v)
	default:
		return errors.Errorf("unsupported output format %q", a.flags.format)
	}
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func renderText(w io.Writer, v any) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	switch v := v.(type) {
	case *sizing.Selectors:
		fmt.Fprintf(tw, "Dimension\t%s\n", strings.Join(v.Dimensions, ", "))
		fmt.Fprintf(tw, "Pipe Standard\t%s\n", strings.Join(v.Standards, ", "))
	case sizeList:
		fmt.Fprintf(tw, "%s\t%s\n", v.Dimension, strings.Join(v.Sizes, ", "))
	case resolved:
		fmt.Fprintf(tw, "Pipe ID\t%s mm\n", num(v.Diameter))
	case calculated:
		r := v.Result
		fmt.Fprintf(tw, "Pipe ID\t%s mm\n", num(r.Diameter))
		fmt.Fprintf(tw, "Velocity\t%s m/s\n", num(r.Velocity))
		fmt.Fprintf(tw, "Flow\t%s CMH\n", num(r.Flow))
		fmt.Fprintf(tw, "Reynolds\t%d (%s)\n", r.Reynolds, r.Regime)
		if r.NoFlow {
			fmt.Fprintf(tw, "Friction factor\t-\n")
			fmt.Fprintf(tw, "Pressure drop\t- (%s m)\n", num(v.Length))
			fmt.Fprintf(tw, "Head\t-\n")
		} else {
			fmt.Fprintf(tw, "Friction factor\t%s\n", strconv.FormatFloat(r.FrictionFactor, 'f', 6, 64))
			fmt.Fprintf(tw, "Pressure drop\t%s bar (%s m)\n", num(r.PressureDrop), num(v.Length))
			fmt.Fprintf(tw, "Head\t%s m\n", num(r.Head))
		}
	case validated:
		fmt.Fprintf(tw, "Rows\t%d\n", v.Rows)
		fmt.Fprintf(tw, "Issues\t%d\n", len(v.Issues))
		for _, issue := range v.Issues {
			fmt.Fprintf(tw, "  %s\t%s\n", issue.Kind, issue.String())
		}
	case converted:
		fmt.Fprintf(tw, "Wrote\t%d rows to %s\n", v.Rows, v.File)
	default:
		return errors.Errorf("cannot render %T", v)
	}
	return tw.Flush()
}

// describe 将错误转换为面向用户的提示
func describe(err error) string {
	switch sizing.StatusOf(err) {
	case "no_match":
		return "no match: " + err.Error()
	case "invalid_dimension":
		return "invalid input: " + err.Error()
	case "domain_error":
		return "friction factor undefined for this flow: " + err.Error()
	case "malformed_value":
		return "malformed table value: " + err.Error()
	case "empty_table":
		return "pipe table is empty"
	default:
		return err.Error()
	}
}
