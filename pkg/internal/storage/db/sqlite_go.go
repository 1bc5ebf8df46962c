//go:build !cgo || no_sqlite

package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/studyvault/pkg/configs"
)

// init 注册纯 Go 实现的 SQLite dialector 工厂，无需 cgo.
func init() {
	RegisterDialectorFactory(configs.SQLite, func(dsn string) gorm.Dialector {
		return sqlite.Open(dsn)
	})
}
