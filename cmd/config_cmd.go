package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/nodegraph/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the nodegraph config file",
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := configPath()
		if path == "" {
			return fmt.Errorf("no config path: pass --config")
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in the config file",
	Long: `Set a dotted key in the config file, keeping its comments.

Examples:
  nodegraph config set document.format json
  nodegraph config set graph.auto_repair true
  nodegraph config set flags.watch-sync true`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if path == "" {
			return fmt.Errorf("no config path: pass --config")
		}
		if err := config.SetValue(path, args[0], parseValue(args[1])); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
		return nil
	},
}

var configFlagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "List feature flags and their state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry := featureFlags()
		w := cmd.OutOrStdout()
		for _, s := range registry.States() {
			state := "off"
			if s.Enabled {
				state = "on"
			}
			if !s.Configured {
				state += " (default)"
			}
			fmt.Fprintf(w, "%-14s %-14s %s\n", s.Name, state, s.Description)
		}
		for _, name := range registry.Unknown() {
			fmt.Fprintf(w, "%-14s %-14s %s\n", name, "ignored", "not a known flag")
		}
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd, configSetCmd, configFlagsCmd)
	rootCmd.AddCommand(configCmd)
}

// configPath is the file config commands edit: --config, then the file that
// was loaded, then the user default.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return defaultConfigPath
}

// parseValue keeps booleans and integers typed in the YAML output.
func parseValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}
