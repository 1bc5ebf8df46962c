package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/studyvault/pkg/configs"
	appctx "github.com/yeisme/studyvault/pkg/context"
	"github.com/yeisme/studyvault/pkg/internal/model"
	"github.com/yeisme/studyvault/pkg/internal/notify"
	"github.com/yeisme/studyvault/pkg/internal/storage"
	"github.com/yeisme/studyvault/pkg/internal/storage/db"
	"github.com/yeisme/studyvault/pkg/internal/storage/kv"
)

var configOnce sync.Once

// initTestConfig 加载默认配置（关闭热重载）.
func initTestConfig(t *testing.T) {
	t.Helper()

	configOnce.Do(func() {
		dir, err := os.MkdirTemp("", "studyvault-test")
		if err != nil {
			t.Fatalf("failed to create temp dir: %v", err)
		}

		cfgFile := filepath.Join(dir, "config.yaml")
		content := "server:\n  reload_config: false\n  debug: false\n"

		if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if err := configs.InitConfig(cfgFile); err != nil {
			t.Fatalf("failed to init config: %v", err)
		}
	})
}

// newTestContext 构建使用内存数据库与内存 KV 的请求 context.
func newTestContext(t *testing.T) (context.Context, *notify.ConsoleSender) {
	t.Helper()

	initTestConfig(t)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}

	if err := gdb.AutoMigrate(&model.User{}, &model.Material{}, &model.Delivery{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	manager := &storage.Manager{
		DB: &db.Client{DB: gdb},
		KV: kv.NewMemoryStore(),
	}

	console := notify.NewConsoleSender()

	ctx := appctx.WithStorageManager(context.Background(), manager)
	ctx = appctx.WithNotifier(ctx, console)

	return ctx, console
}

// seedUser 创建测试用户.
func seedUser(t *testing.T, ctx context.Context, name, email, role string) *model.User {
	t.Helper()

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: "x",
		Role:         role,
	}

	if err := appctx.GetDBClient(ctx).Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	return user
}

// seedMaterial 创建测试资料.
func seedMaterial(t *testing.T, ctx context.Context, ownerID uint, title string) *model.Material {
	t.Helper()

	material := &model.Material{
		OwnerID: ownerID,
		Title:   title,
		Subject: "math",
	}

	if err := appctx.GetDBClient(ctx).Create(material).Error; err != nil {
		t.Fatalf("failed to seed material: %v", err)
	}

	return material
}
