// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/studyvault/pkg/configs"
)

var (
	// configPath 配置文件路径，空则按默认搜索路径查找.
	configPath string

	// debug 输出更详细的调试信息.
	debug bool

	rootCmd = &cobra.Command{
		Use:     "studyvault",
		Short:   "A sharing service for study materials with mail and WhatsApp delivery",
		Version: configs.AppVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable verbose debug output")

	registerServeCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
