package main

import (
	"fmt"
	"os"

	"github.com/myeof/gomllp/pkg/config"
	"github.com/myeof/gomllp/pkg/logger"
	"github.com/spf13/cobra"
)

func newRootCmd(cfg *config.Configuration) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hl7send",
		Short:         "Send a document as an HL7 v2.5 MDM^T02 message over MLLP",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetLogger(logger.NewLogger(cfg.Log.Options()))
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})
	cmd.PersistentFlags().StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&cfg.Log.Mode, "log-mode", cfg.Log.Mode, "Log mode (console, file)")

	cmd.AddCommand(newSendCmd(&cfg.Sender))
	cmd.AddCommand(newListenCmd(&cfg.Listener))
	return cmd
}

func Execute() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return exitUsage
	}
	cmd := newRootCmd(cfg)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return exitCode(err)
	}
	return exitOK
}
