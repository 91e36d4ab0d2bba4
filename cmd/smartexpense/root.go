package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"smartexpense/internal/cli"
	"smartexpense/internal/config"
	"smartexpense/internal/log"
)

// app carries what every command needs after the root pre-run.
type app struct {
	cfg    *config.Config
	logger *log.Logger
}

var state app

var rootCmd = &cobra.Command{
	Use:           "smartexpense",
	Short:         "Smart Expense Manager",
	Long:          `Track expenses, a budget and an income, by form or by voice.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cli.LoadEnvFile()
		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return err
		}
		state.cfg = cfg
		state.logger = cli.SetupLogger(cfg)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(addCmd, voiceCmd, deleteCmd, budgetCmd, incomeCmd, listCmd, summaryCmd)
}
