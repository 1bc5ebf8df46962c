package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yeisme/studyvault/pkg/configs"
)

// init 注册 PostgreSQL dialector 工厂.
func init() {
	factory := func(dsn string) gorm.Dialector {
		return postgres.Open(dsn)
	}

	RegisterDialectorFactory(configs.PostgreSQL, factory)
	RegisterDialectorFactory(configs.Postgres, factory)
	RegisterDialectorFactory(configs.Pg, factory)
}
