package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/xray-tools-mcp/internal/imaging"
	"github.com/ironsheep/xray-tools-mcp/internal/logger"
	"github.com/ironsheep/xray-tools-mcp/internal/server"
	"github.com/ironsheep/xray-tools-mcp/internal/service"
	"github.com/ironsheep/xray-tools-mcp/internal/transport"
)

func mcpCmd(g *globalFlags, info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdin/stdout",
		Long: `Run the Model Context Protocol server. Requests are read from stdin and
responses written to stdout, one JSON-RPC message per line. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			log := newLogger(cmd, cfg)
			svc, err := newService(cfg, log)
			if err != nil {
				return err
			}
			srv := server.New(svc,
				server.WithLogger(logger.Component(log, "mcp")),
				server.WithVersion(info.Version),
				server.WithTimeout(cfg.RequestTimeout),
			)
			return srv.Run(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func serveCmd(g *globalFlags, info BuildInfo) *cobra.Command {
	var host, port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve GET /health and POST /v1/analyze. The server drains in-flight
requests on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := newLogger(cmd, cfg)
			svc, err := newService(cfg, log)
			if err != nil {
				return err
			}
			entry := logger.Component(log, "http")
			srv := &http.Server{
				Addr:         cfg.ServerAddress(),
				Handler:      transport.NewHandler(svc, cfg, entry, info.Version),
				ReadTimeout:  cfg.RequestTimeout,
				WriteTimeout: cfg.RequestTimeout,
			}
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return transport.Serve(ctx, srv, ln, entry)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default from XRAY_HOST)")
	cmd.Flags().StringVar(&port, "port", "", "listen port (default from XRAY_PORT)")
	return cmd
}

func analyzeCmd(g *globalFlags) *cobra.Command {
	var out string
	var annotate bool
	cmd := &cobra.Command{
		Use:     "analyze <source>",
		Short:   "Analyze one capture and print the report as JSON",
		Example: "xray-tools analyze film.png --out enhanced.png --annotate",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			svc, err := newService(cfg, newLogger(cmd, cfg))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()
			a, err := svc.AnalyzeSource(ctx, args[0], service.Overrides{})
			if err != nil {
				return err
			}

			if out != "" {
				if err := writeRendered(svc, a, annotate, out); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the enhanced frame as PNG to this path")
	cmd.Flags().BoolVar(&annotate, "annotate", false, "draw the anomaly marker on the --out image")
	return cmd
}

func writeRendered(svc *service.Service, a *service.Analysis, annotate bool, path string) error {
	img, err := svc.Render(a, annotate)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := imaging.WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func versionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "xray-tools %s\n", info.Version)
			fmt.Fprintf(w, "  Build time: %s\n", info.BuildTime)
			fmt.Fprintf(w, "  Git commit: %s\n", info.GitCommit)
		},
	}
}
