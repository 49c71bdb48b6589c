package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type cli struct {
	opts rootOptions
	app  *app
}

func newCLI() *cli {
	return &cli{}
}

// ensureApp builds the components on first use
func (c *cli) ensureApp(cmd *cobra.Command) (*app, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := newApp(cmd.Context(), c.opts, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *cli) close(ctx context.Context) {
	if c.app == nil {
		return
	}
	if err := c.app.Close(ctx); err != nil {
		c.app.logger.Warn("Shutdown incomplete", "error", err)
	}
	c.app = nil
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Validate game balance changes against the rule catalog",
		Long: `balanceguard checks proposed bubble property changes against the balance
rule catalog and reports errors, warnings, suggestions and safe auto-fixes.

Exit status is 0 when the change is accepted, 1 when it is rejected and 2
when the command itself failed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&c.opts.configPath, "config", "c", "",
		"Path to a YAML configuration file (defaults apply when omitted)")
	root.PersistentFlags().StringVar(&c.opts.logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().StringVar(&c.opts.logFormat, "log-format", "",
		"Log format: json, text (overrides config)")

	root.AddCommand(
		c.validateCommand(),
		c.bubbleCommand(),
		c.batchCommand(),
		c.rulesCommand(),
		c.configCommand(),
		versionCommand(),
	)
	return root
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, Version)
			return err
		},
	}
}
