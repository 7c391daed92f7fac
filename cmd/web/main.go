package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/xiaoyuanbao/internal/config"
	"github.com/example/xiaoyuanbao/internal/logger"
	"github.com/example/xiaoyuanbao/internal/server"
)

const (
	shutdownTimeout  = 10 * time.Second
	limiterIdleAfter = 10 * time.Minute
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()
	if len(cfg.JWT.Secret) < 32 {
		log.Warn("jwt secret shorter than 32 bytes, only acceptable outside production")
	}

	svc, cleanup, err := server.Bootstrap(cfg, log)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	svc.Limiter.StartCleanup(ctx, limiterIdleAfter)

	api := server.NewApp(svc, log)
	admin := server.NewAdminApp(svc.Monitor)

	var wg sync.WaitGroup
	run := func(name string, app *iris.Application, addr string) {
		defer wg.Done()
		log.Info(name+" server listening", zap.String("addr", addr), zap.String("store", cfg.Store.Driver))
		err := app.Run(iris.Addr(addr), iris.WithoutInterruptHandler, iris.WithoutServerError(iris.ErrServerClosed))
		if err != nil && !errors.Is(err, iris.ErrServerClosed) {
			log.Error(name+" server stopped", zap.Error(err))
			stop()
		}
	}
	wg.Add(2)
	go run("api", api, cfg.Server.Addr())
	go run("admin", admin, cfg.AdminServer.Addr())

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, app := range []*iris.Application{api, admin} {
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown failed", zap.Error(err))
		}
	}
	wg.Wait()
}
