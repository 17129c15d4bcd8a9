package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/swagger2gql/internal/server"
)

var serveRunner = runServe

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a GraphQL endpoint that proxies to the REST API",
		Long: "Serve a GraphQL endpoint derived from an OpenAPI/Swagger document. " +
			"Every query and mutation is forwarded to the matching REST endpoint, " +
			"passing the caller's Authorization header along. The SDL is written to --schema-out on startup.",
		Example: strings.TrimSpace(`  swagger2gql serve --input openapi.json --upstream http://localhost:3000
  swagger2gql --config swagger2gql.yaml serve --graphiql`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveServeConfig(cmd)
			if err != nil {
				return err
			}
			return serveRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	addServeFlags(flags)
	flags.String("listen", "", "Address to listen on (default :3001)")
	flags.String("path", "", "HTTP path of the GraphQL endpoint (default /graphql)")
	flags.String("schema-out", "", "Where to write the SDL on startup (default schema.gql, empty string disables)")
	flags.Duration("timeout", 0, "Per-call upstream timeout (0 means none)")
	flags.Bool("graphiql", false, "Serve the GraphiQL IDE on GET requests")

	return cmd
}

func runServe(ctx context.Context, cfg *ServeConfig) error {
	logger := newLogger(stderr, cfg.LogFormat, cfg.Verbose)

	sm, err := loadModel(ctx, cfg)
	if err != nil {
		return err
	}
	base := resolveUpstream(cfg.Upstream, sm)
	schema, err := buildSchema(sm, cfg, base, newUpstreamClient(cfg, logger), logger)
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	if cfg.SchemaOut != "" && cfg.SchemaOut != "-" {
		if err := writeFileAtomic(cfg.SchemaOut, []byte(schema.SDL)); err != nil {
			return err
		}
		logger.Info("wrote schema", slog.String("path", cfg.SchemaOut))
	}

	exec, err := schema.Executable()
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	srv := server.New(exec, server.Options{
		Addr:     cfg.Listen,
		Path:     cfg.Path,
		GraphiQL: cfg.GraphiQL,
		Pretty:   true,
		SDL:      schema.SDL,
		Logger:   logger,
	})
	logger.Info("proxying", slog.String("upstream", base))
	return srv.Run(ctx)
}
