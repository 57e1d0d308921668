package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/flowchart/internal/httpapi"
	"github.com/dusk-indust/flowchart/internal/mcptools"
)

func (a *app) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload and translate HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = a.cfg.ListenAddr
			}

			svc, closeStore, err := a.newService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			a.logger.Info("serving HTTP API", "addr", addr, "store", storeLabel(a.cfg.StorePath))
			return httpapi.ListenAndServe(ctx, addr, httpapi.New(svc, a.logger))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default listenAddr from config)")
	return cmd
}

func (a *app) mcpCommand() *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio, or on streamable HTTP with --http",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			svc, closeStore, err := a.newService(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			server := mcptools.NewMCPServer(svc, a.logger)
			if httpAddr != "" {
				a.logger.Info("serving MCP over HTTP", "addr", httpAddr)
				return mcptools.RunHTTP(ctx, server, httpAddr)
			}
			a.logger.Debug("serving MCP on stdio")
			return mcptools.RunStdio(ctx, server)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	return cmd
}

func storeLabel(path string) string {
	if path == "" {
		return "memory"
	}
	return path
}
