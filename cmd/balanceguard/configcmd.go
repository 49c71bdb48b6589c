package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360/balanceguard/config"
)

func (c *cli) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create configuration files",
	}
	cmd.AddCommand(c.configShowCommand(), configInitCommand())
	return cmd
}

func (c *cli) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(c.opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), cfg.String())
			return err
		},
	}
}

func configInitCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Default().SaveToFile(output); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "balanceguard.yaml", "Destination file")
	return cmd
}
