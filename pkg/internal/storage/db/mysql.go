package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/yeisme/studyvault/pkg/configs"
)

// init 注册 MySQL dialector 工厂.
func init() {
	factory := func(dsn string) gorm.Dialector {
		return mysql.Open(dsn)
	}

	RegisterDialectorFactory(configs.MySQL, factory)
	RegisterDialectorFactory(configs.MariaDB, factory)
}
