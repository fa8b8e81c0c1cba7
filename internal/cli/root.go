package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/callwatch/callwatch/internal/transport"
)

var rootSocket string

var rootCmd = &cobra.Command{
	Use:   "callwatch",
	Short: "Collector-side tooling for the libc call shim",
	Long: "Runs, receives and checks the call telemetry a preloaded shim emits:\n" +
		"a collector for its unix-socket events, a probe battery that verifies\n" +
		"hook filtering end to end, and offline policy queries.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The shim side reads only the environment, so the flag wins
		// by becoming the environment.
		if rootSocket != "" {
			return os.Setenv(transport.EnvSocket, rootSocket)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootSocket, "socket", "",
		"Collector socket path (overrides "+transport.EnvSocket+")")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
