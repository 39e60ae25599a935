package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saveblush/reraw-info/core/config"
)

// NewRootCmd new root command, version is the build version handed to the document
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reraw-info",
		Short: "Relay information document (NIP-11) gateway",
		Long: `reraw-info publishes the NIP-11 relay information document derived from
the relay configuration: identity, supported NIPs, limitations and fees.
Websocket upgrades are passed on to the upstream relay when one is configured.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config-path", config.DefaultFilePath, "directory holding config.yml")

	rootCmd.AddCommand(
		newServeCmd(version),
		newInfoCmd(version),
	)

	return rootCmd
}

// Execute run the root command
func Execute(version string) {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
