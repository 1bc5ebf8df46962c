package handle

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	appctx "github.com/yeisme/studyvault/pkg/context"
)

// Ping 存活检查
//
//	@Summary	存活检查
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/api/v1/health/ping [get]
func Ping(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"message": "pong"})
}

// Health 聚合健康检查，并发探测各存储组件
//
//	@Summary	健康检查
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	map[string]any
//	@Router		/api/v1/health [get]
func Health(c *gin.Context) {
	ctx := c.Request.Context()
	m := appctx.GetStorageManager(ctx)

	if m == nil {
		fail(c, http.StatusServiceUnavailable, "storage not initialized")

		return
	}

	components := map[string]string{}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)

	record := func(name string, err error) error {
		mu.Lock()
		defer mu.Unlock()

		if err != nil {
			components[name] = err.Error()

			return err
		}

		components[name] = "ok"

		return nil
	}

	g.Go(func() error {
		sqlDB, err := m.DB.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}

		return record("db", err)
	})

	g.Go(func() error {
		return record("kv", m.KV.Ping(ctx))
	})

	if m.S3 != nil {
		g.Go(func() error {
			return record("s3", m.S3.HealthCheck(ctx))
		})
	}

	err := g.Wait()

	status := http.StatusOK
	healthy := err == nil

	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"success": healthy,
		"data": gin.H{
			"healthy":    healthy,
			"components": components,
		},
	})
}
