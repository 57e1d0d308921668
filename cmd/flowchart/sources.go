package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/flowchart/internal/flow"
	"github.com/dusk-indust/flowchart/internal/translate"
)

func (a *app) languagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported input languages and their file extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeStore, err := a.newService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			out := cmd.OutOrStdout()
			for _, lang := range svc.Languages() {
				fmt.Fprintf(out, "%-12s %s\n", lang, joinExtensions(lang))
			}
			return nil
		},
	}
}

func (a *app) sourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources [source]",
		Short: "List the sources held in the diagram store, or the diagrams of one source",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeStore, err := a.newService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			out := cmd.OutOrStdout()
			st := svc.Store()

			if len(args) == 1 {
				info, err := st.GetSource(ctx, args[0])
				if err != nil {
					return err
				}
				if info == nil {
					return fmt.Errorf("source not found: %s", args[0])
				}
				units, err := st.ListUnits(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s (%s)\n\n", info.Source, info.Language)
				for _, u := range units {
					fmt.Fprintf(out, "  %-32s %-9s %4d nodes %4d edges\n", u.Name, u.Kind, u.Nodes, u.Edges)
				}
				return nil
			}

			sources, err := svc.Sources(ctx)
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				fmt.Fprintln(out, "No sources stored.")
				fmt.Fprintln(out, "Run 'flowchart translate --store <dir> <path>' to translate and keep diagrams.")
				return nil
			}
			for _, s := range sources {
				fmt.Fprintf(out, "  %-40s %-10s %3d diagrams\n", s.Source, s.Language, s.Units)
			}
			return nil
		},
	}
}

func joinExtensions(lang flow.Language) string {
	return strings.Join(translate.Extensions(lang), " ")
}
