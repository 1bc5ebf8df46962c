package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/studyvault/pkg/internal/storage/kv"
)

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	kvCmd := &cobra.Command{
		Use:     "kv",
		Short:   "key-value backend commands",
		Aliases: []string{"keyvalue"},
	}

	kvCmd.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "show key-value backends compiled into this binary",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, _ []string) {
			printBackendTypes(cmd, "key-value", kv.GetRegisteredKVTypes())
		},
	})

	rootCmd.AddCommand(kvCmd)
}
