package main

import (
	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/chunked-transcription/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "transcribe",
		Short:         "Chunked parallel audio transcription",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", config.DefaultPath, "Configuration file path")

	rootCmd.AddCommand(newFileCommand(&configFlag))
	return rootCmd
}
