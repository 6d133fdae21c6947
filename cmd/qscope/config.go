package main

import (
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"qscope/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cancel, _, log, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer log.Sync()

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(config.Settings())
		},
	})
	return cmd
}
