package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var schemaRunner = runSchema

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Render the GraphQL SDL for an OpenAPI/Swagger document",
		Long:  "Render the GraphQL SDL for an OpenAPI/Swagger document without starting a server.",
		Example: strings.TrimSpace(`  swagger2gql schema --input openapi.json --out schema.gql
  swagger2gql schema --input https://api.example.com/openapi.json --out -`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveServeConfig(cmd)
			if err != nil {
				return err
			}
			return schemaRunner(cmd.Context(), cfg)
		},
	}

	addServeFlags(cmd.Flags())
	cmd.Flags().String("out", "", "Where to write the SDL (default schema.gql, - for stdout)")

	return cmd
}

func runSchema(ctx context.Context, cfg *ServeConfig) error {
	logger := newLogger(stderr, cfg.LogFormat, cfg.Verbose)

	sm, err := loadModel(ctx, cfg)
	if err != nil {
		return err
	}
	schema, err := buildSchema(sm, cfg, resolveUpstream(cfg.Upstream, sm), nil, logger)
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	out := cfg.SchemaOut
	if out == "" {
		out = defaultSchemaOut
	}
	if err := writeFileAtomic(out, []byte(schema.SDL)); err != nil {
		return err
	}
	if out != "-" {
		fmt.Fprintf(os.Stdout, "Wrote %d queries, %d mutations and %d types to %s\n",
			len(schema.Query), len(schema.Mutation), len(schema.Types), out)
	}
	return nil
}
