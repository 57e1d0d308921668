package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/flowchart/internal/export"
	"github.com/dusk-indust/flowchart/internal/service"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output   string // output file; stdout when empty
	unit     string // diagram to draw; main when empty
	format   string // mermaid (default), dot, svg or json
	language string // overrides extension detection
	list     bool   // print unit names instead of drawing
}

func (a *app) renderCommand() *cobra.Command {
	opts := renderOpts{format: string(export.FormatMermaid)}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Draw one diagram of a source file as Mermaid, DOT, SVG or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.unit, "unit", "u", "", "diagram to draw, e.g. area or Account.Deposit (default main)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: mermaid, dot, svg, json")
	cmd.Flags().StringVarP(&opts.language, "lang", "l", "", "source language (default: detect from extension; required for -)")
	cmd.Flags().BoolVar(&opts.list, "list", false, "list the diagrams of the file and exit")

	return cmd
}

func (a *app) runRender(cmd *cobra.Command, path string, opts *renderOpts) error {
	ctx := cmd.Context()

	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	svc, closeStore, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	var tr *service.Translation
	switch {
	case path == "-":
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		tr, err = svc.Translate(ctx, service.Request{Source: src, Language: opts.language})
		if err != nil {
			return err
		}
	case opts.language != "":
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		tr, err = svc.Translate(ctx, service.Request{Source: src, Language: opts.language, Filename: path})
		if err != nil {
			return err
		}
	default:
		tr, err = svc.TranslateFile(ctx, path)
		if err != nil {
			return err
		}
	}

	if opts.list {
		for _, name := range tr.Result.UnitNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	unit := opts.unit
	if unit == "" {
		unit = "main"
	}
	d, ok := tr.Result.Lookup(unit)
	if !ok {
		return fmt.Errorf("no diagram %q in %s (have: %s)", unit, path, strings.Join(tr.Result.UnitNames(), ", "))
	}

	body, err := export.Render(ctx, d, unit, format)
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err = cmd.OutOrStdout().Write(body)
		return err
	}
	if err := os.WriteFile(opts.output, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	loggerFromContext(ctx).Info("rendered", "unit", unit, "format", format, "path", opts.output)
	return nil
}
