package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/smazurov/mpvnode/internal/version"
	"github.com/spf13/cobra"
)

// CreateVersionCmd creates the version command.
func CreateVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "mpvnode %s\n  commit: %s\n  built:  %s\n  go:     %s (%s)\n  platform: %s\n",
				info.Version, info.GitCommit, info.BuildDate, info.GoVersion, info.Compiler, info.Platform)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the version as JSON")
	return cmd
}
