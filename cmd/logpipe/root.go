package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "logpipe",
		Short:         "Send lines through the configured log outputs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "./logging.yaml", "Logging configuration file (json, yaml or toml)")

	rootCmd.AddCommand(newRunCommand(&configFlag))
	rootCmd.AddCommand(newCheckCommand(&configFlag))

	return rootCmd
}
