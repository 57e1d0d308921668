package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/flowchart/internal/export"
	"github.com/dusk-indust/flowchart/internal/service"
)

// translateOpts holds the flags of the translate command.
type translateOpts struct {
	output   string // directory receiving one JSON document per source
	language string // language tag for stdin input
	pretty   bool
}

func (a *app) translateCommand() *cobra.Command {
	opts := translateOpts{pretty: true}

	cmd := &cobra.Command{
		Use:   "translate <path>...",
		Short: "Translate source files or directories into flowchart JSON",
		Long: `Translate each file, or every recognized file under each directory, and write
the resulting flowcharts as JSON. Without --output one source prints a single
document and several print an array. Use "-" with --lang to read stdin.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTranslate(cmd, args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write one <name>.json per source into this directory")
	cmd.Flags().StringVarP(&opts.language, "lang", "l", "", "language of stdin input: python, javascript or csharp")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", opts.pretty, "indent JSON output")

	return cmd
}

func (a *app) runTranslate(cmd *cobra.Command, args []string, opts *translateOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	svc, closeStore, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if len(args) == 1 && args[0] == "-" {
		if opts.language == "" {
			return fmt.Errorf("--lang is required when reading stdin")
		}
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		tr, err := svc.Translate(ctx, service.Request{Source: src, Language: opts.language})
		if err != nil {
			return err
		}
		return export.WriteJSON(cmd.OutOrStdout(), export.ExportResult("", tr.Language, tr.Result), opts.pretty)
	}

	paths, err := expandPaths(svc, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no translatable files found")
	}

	if opts.output != "" {
		if err := os.MkdirAll(opts.output, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	prog := newProgress(logger)
	results, err := svc.TranslateFiles(ctx, paths)
	if err != nil {
		return err
	}

	var docs []*export.ResultExport
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Error("translate failed", "path", r.Path, "err", r.Err)
			continue
		}
		doc := export.ExportResult(r.Path, r.Translation.Language, r.Translation.Result)
		if opts.output == "" {
			docs = append(docs, doc)
			continue
		}
		dest := filepath.Join(opts.output, outputName(r.Path)+".json")
		if err := writeJSONFile(dest, doc, opts.pretty); err != nil {
			return err
		}
		logger.Debug("wrote", "path", dest)
	}

	if opts.output == "" {
		var v any = docs
		if len(results) == 1 && len(docs) == 1 {
			v = docs[0]
		}
		if len(docs) > 0 {
			if err := export.WriteJSON(cmd.OutOrStdout(), v, opts.pretty); err != nil {
				return err
			}
		}
	}

	prog.done(fmt.Sprintf("Translated %d of %d files", len(results)-failed, len(results)))
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// expandPaths replaces each directory argument with the translatable files
// beneath it.
func expandPaths(svc *service.Service, args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		files, err := svc.SourceFiles(arg)
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
		paths = append(paths, files...)
	}
	return paths, nil
}

// outputName flattens a source path into a file name: "src/app.py"
// becomes "src_app.py".
func outputName(path string) string {
	p := filepath.ToSlash(filepath.Clean(path))
	for strings.HasPrefix(p, "../") {
		p = p[3:]
	}
	p = strings.TrimPrefix(p, "/")
	return strings.ReplaceAll(p, "/", "_")
}

func writeJSONFile(path string, v any, pretty bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteJSON(f, v, pretty); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
