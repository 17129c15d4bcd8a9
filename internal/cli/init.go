package cli

import (
    "context"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "init",
        Short: "Scaffold a sample swagger2gql configuration file",
        Long:  "Scaffold a commented swagger2gql configuration file that documents the serve and schema options.",
        RunE: func(cmd *cobra.Command, args []string) error {
            out, err := cmd.Flags().GetString("out")
            if err != nil {
                return err
            }
            force, err := cmd.Flags().GetBool("force")
            if err != nil {
                return err
            }
            verbose, err := cmd.Flags().GetBool("verbose")
            if err != nil {
                return err
            }
            cfg := &InitConfig{
                OutputPath: out,
                Force:      force,
                Verbose:    verbose,
            }
            return initRunner(cmd.Context(), cfg)
        },
    }

    cmd.Flags().String("out", defaultConfigFile, "Where to write the sample config file")
    cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

    return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
    _ = ctx

    out := strings.TrimSpace(cfg.OutputPath)
    if out == "" {
        out = defaultConfigFile
    }
    absPath, err := filepath.Abs(out)
    if err != nil {
        return fmt.Errorf("init: resolve output path: %w", err)
    }

    if st, err := os.Stat(absPath); err == nil && !cfg.Force {
        if st.Mode().IsRegular() {
            return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
        }
    }

    content := strings.TrimSpace(sampleConfigYAML) + "\n"
    if err := writeFileAtomic(absPath, []byte(content)); err != nil {
        return fmt.Errorf("init: %w", err)
    }
    fmt.Fprintf(os.Stdout, "Wrote sample config to %s\n", absPath)
    return nil
}

const defaultConfigFile = "swagger2gql.yaml"

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# swagger2gql configuration (YAML or JSON)
# All fields are optional. Command-line flags override config values.

# Path or URL to the OpenAPI 3 / Swagger 2 document (http/https or local file).
# Fetch one with: swagger2gql fetch http://localhost:3000/auth/openapi-json
# input: ./openapi.json

# Base URL every GraphQL field is proxied to. Defaults to the document's first
# server URL, else http://localhost:3000.
# upstream: http://localhost:3000

# Address and HTTP path of the GraphQL endpoint.
# listen: ":3001"
# path: /graphql

# Where the SDL is written on startup. Empty disables the file.
# schemaOut: schema.gql

# Per-call upstream timeout (Go duration or seconds). 0 means none.
# timeout: 30s

# Only expose operations with these tags (comma-separated or list).
# includeTags: [public,read]

# Hide operations with these tags (comma-separated or list).
# excludeTags: [internal]

# Only expose these HTTP methods.
# methods: [get,post,put,patch,delete]

# Only expose paths matching these regular expressions.
# paths: ["^/users"]

# Serve the GraphiQL IDE on GET requests to the endpoint.
# graphiql: false

# Map unresolved $refs to String instead of refusing to start.
# lenientRefs: false

# Log format (auto|text|json) and verbosity.
# logFormat: auto
# verbose: false
`
