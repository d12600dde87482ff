package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mikey/llm-mail-agent/internal/di"
)

func main() {
	flags := &di.CLIFlags{}

	rootCmd := &cobra.Command{
		Use:           "mail-agent-cli",
		Short:         "Run the mail agent against local messages and configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Path to config file (default search paths if empty)")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")

	rootCmd.AddCommand(
		newReplyCmd(flags),
		newPersonasCmd(flags),
		newCheckSenderCmd(flags),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
