package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/studyvault/pkg/internal/storage/mq"
)

// registerMQCommands 注册 MQ 相关命令.
func registerMQCommands() {
	mqCmd := &cobra.Command{
		Use:     "mq",
		Short:   "message queue backend commands",
		Aliases: []string{"messagequeue"},
	}

	mqCmd.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "show message queue backends compiled into this binary",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, _ []string) {
			printBackendTypes(cmd, "message queue", mq.GetRegisteredMQTypes())
		},
	})

	rootCmd.AddCommand(mqCmd)
}
