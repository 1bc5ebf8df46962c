package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/studyvault/pkg/configs"
)

// registerConfigsCommands 注册配置相关命令.
func registerConfigsCommands() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "config subcommands",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return configs.InitConfig(configPath)
		},
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "print the path of the config file in use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := configs.GetViper()
			if v == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "config not initialized")

				return nil
			}

			if file := v.ConfigFileUsed(); file != "" {
				fmt.Fprintln(cmd.OutOrStdout(), file)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "no config file used (defaults and env only)")
			}

			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "debug",
		Short: "dump the effective config values",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configs.GetViper() == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "config not initialized")

				return nil
			}

			if debug {
				configs.GetViper().Debug()
			}

			b, err := json.MarshalIndent(configs.GetConfig(), "", "  ")
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "failed to marshal config:", err)

				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	})

	rootCmd.AddCommand(configCmd)
}
