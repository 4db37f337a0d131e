package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/quasselwire/internal/config"
)

const defaultConfigPath = "qwire.toml"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate a qwire config",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPathArg(args)
			if err := config.WriteTemplate(path, force); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote config template to %s\n", path)
			return err
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	validateCmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPathArg(args)
			if _, err := config.Load(path); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "validated config at %s\n", path)
			return err
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}

func configPathArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return defaultConfigPath
}
