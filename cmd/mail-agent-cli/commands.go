package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-agent/internal/address"
	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/mikey/llm-mail-agent/internal/di"
	"github.com/mikey/llm-mail-agent/internal/inbound"
	"github.com/mikey/llm-mail-agent/internal/persona"
	"github.com/mikey/llm-mail-agent/internal/whitelist"
)

func newReplyCmd(flags *di.CLIFlags) *cobra.Command {
	var inputFile string

	cmd := &cobra.Command{
		Use:   "reply",
		Short: "Generate a reply for an RFC 5322 message (printed unless --send)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.Output = cmd.OutOrStdout()
			container, err := di.BuildCLIContainer(flags)
			if err != nil {
				return fmt.Errorf("build container: %w", err)
			}

			return container.Invoke(func(parser *inbound.Parser, svc *core.ReplyService, logger *zap.Logger) error {
				defer logger.Sync()

				var r io.Reader = cmd.InOrStdin()
				if inputFile != "" {
					f, err := os.Open(inputFile)
					if err != nil {
						return fmt.Errorf("open input: %w", err)
					}
					defer f.Close()
					r = f
				}

				msg, err := parser.FromRFC5322(r)
				if err != nil {
					return err
				}

				outcome, err := svc.Process(context.Background(), msg)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", outcome.Status, outcome.Message)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "Input email file (stdin if not specified)")
	cmd.Flags().BoolVar(&flags.Send, "send", false, "Send the reply with the configured mailer")
	return cmd
}

func newPersonasCmd(flags *di.CLIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "Print the merged persona table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := di.BuildCLIContainer(flags)
			if err != nil {
				return fmt.Errorf("build container: %w", err)
			}

			return container.Invoke(func(registry *persona.Registry) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "KEY\tMODEL\tNAME\tPROVIDER")
				for _, key := range registry.Keys() {
					p, _ := registry.Lookup(key)
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", key, p.Model, p.Name, p.Provider)
				}
				d := registry.Default()
				fmt.Fprintf(w, "(default)\t%s\t%s\t%s\n", d.Model, d.Name, d.Provider)
				return w.Flush()
			})
		},
	}
}

func newCheckSenderCmd(flags *di.CLIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check-sender [address...]",
		Short: "Report whether senders pass the whitelist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := di.BuildCLIContainer(flags)
			if err != nil {
				return fmt.Errorf("build container: %w", err)
			}

			return container.Invoke(func(checker *whitelist.Checker) {
				for _, addr := range args {
					verdict := "rejected"
					if checker.IsWhitelisted(address.ExtractEmail(addr)) {
						verdict = "allowed"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", addr, verdict)
				}
			})
		},
	}
}
