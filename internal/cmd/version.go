package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for full details including Crucible and Go versions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		writeVersion(cmd.OutOrStdout(), GetAppIdentity().BinaryName, extended)
		return nil
	},
}

func writeVersion(w io.Writer, name string, extended bool) {
	_, _ = fmt.Fprintf(w, "%s %s\n", name, versionInfo.Version)
	if !extended {
		return
	}

	deps := crucible.GetVersion()
	_, _ = fmt.Fprintf(w, "Commit: %s\n", versionInfo.Commit)
	_, _ = fmt.Fprintf(w, "Built: %s\n", versionInfo.BuildDate)
	_, _ = fmt.Fprintf(w, "Go: %s\n\n", runtime.Version())
	_, _ = fmt.Fprintf(w, "Gofulmen: %s\n", deps.Gofulmen)
	_, _ = fmt.Fprintf(w, "Crucible: %s\n", deps.Crucible)
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
}
