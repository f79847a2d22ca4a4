package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/lockpanel/internal/config"
	"github.com/muurk/lockpanel/internal/ui"
)

var initForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration file",
	Long: `Manage the lockpanel configuration file.

Settings are read from the config file, then ./.env, then the
environment (` + config.EnvServerURL + `, ` + config.EnvSerialPort + `, ...), then flags.
Later sources win.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		location := configPath
		if location == "" {
			p, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			location = p
		}
		data, err := cfg.Marshal(location)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:               "path",
	Short:             "Print the configuration file path",
	PersistentPreRunE: setupLogging,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			fmt.Fprintln(cmd.OutOrStdout(), configPath)
			return nil
		}
		p, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:               "init",
	Short:             "Write a configuration file with default values",
	PersistentPreRunE: setupLogging,
	Example: `  lockpanel config init
  lockpanel config init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.NewPrinter(cmd.OutOrStdout())

		force := initForce
		path := configPath
		if path == "" {
			def, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			path = def
		}
		if _, err := os.Stat(path); err == nil && !force && ui.IsTerminal() {
			force = p.Confirm(cmd.InOrStdin(), "Config file exists", []string{
				path,
				"Existing settings will be replaced with defaults",
			}, "Overwrite?")
		}

		written, created, err := config.Init(path, force)
		if err != nil {
			p.PrintFailure("Could not write config", err, nil)
			return errReported
		}
		if !created {
			p.PrintWarning("Config file left unchanged", ui.Param{Key: "Path", Value: written})
			return nil
		}
		p.PrintSuccess("Config file written", ui.Param{Key: "Path", Value: written})
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file without asking")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
