package cmd

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/saveblush/reraw-info/core/config"
	"github.com/saveblush/reraw-info/pgk/nips/nip11"
)

func newInfoCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the relay information document for the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config-path")
			cf, err := config.Load(path)
			if err != nil {
				return err
			}

			b, err := json.MarshalIndent(nip11.NewService(version).Build(cf), "", "  ")
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}
