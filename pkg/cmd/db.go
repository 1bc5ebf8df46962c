package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/studyvault/pkg/internal/storage/db"
)

// printBackendTypes 打印已注册的后端类型列表.
func printBackendTypes[T ~string](cmd *cobra.Command, kind string, types []T) {
	fmt.Fprintf(cmd.OutOrStdout(), "registered %s backends:\n", kind)

	for _, t := range types {
		fmt.Fprintln(cmd.OutOrStdout(), " - "+string(t))
	}
}

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "database backend commands",
	}

	dbCmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "show database drivers compiled into this binary",
		Run: func(cmd *cobra.Command, _ []string) {
			printBackendTypes(cmd, "database", db.GetRegisteredDBTypes())
		},
	})

	rootCmd.AddCommand(dbCmd)
}
