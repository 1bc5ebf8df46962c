//go:build cgo && !no_sqlite

package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/studyvault/pkg/configs"
)

// init 注册基于 cgo 的 SQLite dialector 工厂.
func init() {
	RegisterDialectorFactory(configs.SQLite, func(dsn string) gorm.Dialector {
		return sqlite.Open(dsn)
	})
}
