// Package app 提供应用程序的初始化和生命周期管理.
package app

import (
	contextPkg "context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/studyvault/pkg/api"
	"github.com/yeisme/studyvault/pkg/configs"
	"github.com/yeisme/studyvault/pkg/internal/jobs"
	"github.com/yeisme/studyvault/pkg/internal/notify"
	"github.com/yeisme/studyvault/pkg/internal/storage"
	"github.com/yeisme/studyvault/pkg/log"
	"github.com/yeisme/studyvault/pkg/metrics"
	"github.com/yeisme/studyvault/pkg/middleware"
	"github.com/yeisme/studyvault/pkg/scheduler"
	"github.com/yeisme/studyvault/pkg/tracing"
)

// shutdownTimeout 优雅关闭的等待时间.
const shutdownTimeout = 10 * time.Second

// App 聚合运行一个实例所需的引擎与后台组件.
type App struct {
	Engine    *gin.Engine
	config    *configs.AppConfig
	manager   *storage.Manager
	scheduler *scheduler.Scheduler
}

// NewApp 按配置路径装配应用：配置、日志、追踪、监控、存储、通知、调度与路由.
func NewApp(configPath string) *App {
	ctx := contextPkg.Background()

	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()

	log.Init()
	l := log.Logger()

	if !config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	if err := tracing.InitTracer(config.Tracing); err != nil {
		fmt.Printf("Error initializing tracing: %v\n", err)
		os.Exit(1)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.InitStorage(ctx, config)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	notifier, err := notify.NewDispatcher(&config.Notify, &config.CircuitBreaker)
	if err != nil {
		fmt.Printf("Error initializing notifier: %v\n", err)
		os.Exit(1)
	}

	sched, err := scheduler.New()
	if err != nil {
		fmt.Printf("Error initializing scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterJobs(sched, manager); err != nil {
		fmt.Printf("Error registering jobs: %v\n", err)
		os.Exit(1)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.CORSMiddleware(),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.ZerologMiddleware(),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(&config.RateLimit),
		middleware.CircuitBreakerMiddleware(&config.CircuitBreaker),
		middleware.StorageMiddleware(manager, notifier),
		middleware.SchedulerMiddleware(sched),
	)

	api.RegisterRoutes(engine)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	return &App{
		Engine:    engine,
		config:    config,
		manager:   manager,
		scheduler: sched,
	}
}

// Run 启动 HTTP 服务并阻塞至收到退出信号，随后优雅关闭各组件.
func (a *App) Run() error {
	l := log.Logger()

	a.scheduler.Start()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		l.Info().Str("addr", srv.Addr).Msg("http server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		l.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := contextPkg.WithTimeout(contextPkg.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("http server shutdown failed")
	}

	if err := a.scheduler.Stop(); err != nil {
		l.Error().Err(err).Msg("scheduler stop failed")
	}

	if err := a.manager.Close(); err != nil {
		l.Error().Err(err).Msg("storage close failed")
	}

	if err := tracing.ShutdownTracer(ctx); err != nil {
		l.Error().Err(err).Msg("tracer shutdown failed")
	}

	return nil
}
