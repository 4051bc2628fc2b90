package helper

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/raids-lab/buildtracker/internal"
	"github.com/raids-lab/buildtracker/internal/handler"
	"github.com/raids-lab/buildtracker/pkg/config"
	"github.com/raids-lab/buildtracker/pkg/cronjob"
	"github.com/raids-lab/buildtracker/pkg/logutils"
)

// ServerRunner 封装服务器运行逻辑
type ServerRunner struct {
	backendConfig *config.Config
}

// NewServerRunner 创建新的ServerRunner实例
func NewServerRunner(backendConfig *config.Config) *ServerRunner {
	return &ServerRunner{
		backendConfig: backendConfig,
	}
}

// SetupLogger 设置日志级别
func (sr *ServerRunner) SetupLogger() {
	logutils.SetLevel(sr.backendConfig.LogLevel)
}

// StartCronJobs 注册并启动定时任务
func (sr *ServerRunner) StartCronJobs(registerConfig *handler.RegisterConfig) (*cronjob.CronJobManager, error) {
	cronManager := cronjob.NewCronJobManager(registerConfig.Query)
	if err := cronManager.RegisterJobs(sr.backendConfig); err != nil {
		return nil, err
	}
	cronManager.Start()
	klog.Infof("cron jobs started: %v", cronManager.JobNames())
	return cronManager, nil
}

var (
	readHeaderTimeout = 10 * time.Second // 设置读取头部的超时时间
	cancelTimeout     = 10 * time.Second // 设置取消操作的超时时间
)

// StartServer 启动HTTP服务器
func (sr *ServerRunner) StartServer(registerConfig *handler.RegisterConfig) {
	klog.Info("starting server")
	backend := internal.Register(registerConfig)

	// reference: https://gin-gonic.com/en/docs/examples/graceful-restart-or-stop
	srv := &http.Server{
		Addr:              sr.backendConfig.ServerAddr,
		Handler:           backend,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		// service connections
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with
	// a timeout of 10 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	klog.Info("Shutdown Gin Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		klog.Info("Gin Server Shutdown:", err)
	}
	klog.Info("Gin Server exiting")
}
