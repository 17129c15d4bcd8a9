package cli

import (
    "context"
    "fmt"
    "io"
    "os"

    "github.com/spf13/cobra"
)

// stderr receives log output of the serve and schema commands.
var stderr io.Writer = os.Stderr

// Execute runs the swagger2gql CLI.
func Execute(ctx context.Context) error {
    return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "swagger2gql",
        Short: "Serve a GraphQL API in front of a REST API described by OpenAPI/Swagger",
        Long: "swagger2gql translates an OpenAPI 3 or Swagger 2 document into a GraphQL schema " +
            "and serves it, forwarding every query and mutation to the REST endpoint it came from.",
        SilenceErrors: true,
        SilenceUsage:  true,
        RunE: func(cmd *cobra.Command, args []string) error {
            return cmd.Help()
        },
    }

    // Convert Cobra flag errors (like unknown flags) into friendly usage errors
    // that also show the command's help text.
    flagErr := func(c *cobra.Command, err error) error {
        return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
    }
    cmd.SetFlagErrorFunc(flagErr)

    cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
    cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")
    cmd.PersistentFlags().String("log-format", "", "Log format: auto, text or json (default auto)")

    for _, sub := range []*cobra.Command{newServeCmd(), newSchemaCmd(), newFetchCmd(), newInitCmd()} {
        sub.SetFlagErrorFunc(flagErr)
        cmd.AddCommand(sub)
    }

    return cmd
}
