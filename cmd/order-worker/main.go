package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"github.com/kataras/iris/v12"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/example/xiaoyuanbao/internal/cache"
	"github.com/example/xiaoyuanbao/internal/config"
	"github.com/example/xiaoyuanbao/internal/infra/mq"
	"github.com/example/xiaoyuanbao/internal/infra/redis"
	"github.com/example/xiaoyuanbao/internal/logger"
	"github.com/example/xiaoyuanbao/internal/server"
	"github.com/example/xiaoyuanbao/internal/service"
)

const prefetch = 16

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	if cfg.RabbitMQ.URL == "" {
		log.Fatal("rabbitmq url is required for the order worker")
	}

	mon := service.GetMonitor()
	var kv cache.Store = cache.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		kv = cache.NewRedisStore(redis.Init(&cfg.Redis))
	} else {
		log.Warn("redis not configured, invalidations only hit the local cache")
	}
	handler := service.NewOrderEventHandler(cache.New(kv, log, mon), mon, log)

	conn := mq.Init(&cfg.RabbitMQ)
	defer conn.Close()
	ch, msgs, err := mq.ConsumeOrderEvents(conn, prefetch)
	if err != nil {
		log.Fatal("failed to consume order events", zap.Error(err))
	}
	defer ch.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	admin := server.NewAdminApp(mon)
	go func() {
		addr := cfg.WorkerAdmin.Addr()
		log.Info("worker metrics listening", zap.String("addr", addr))
		if err := admin.Run(iris.Addr(addr), iris.WithoutInterruptHandler, iris.WithoutServerError(iris.ErrServerClosed)); err != nil {
			log.Error("worker metrics server stopped", zap.Error(err))
		}
	}()
	defer func() { _ = admin.Shutdown(context.Background()) }()

	log.Info("order worker started", zap.String("queue", mq.QueueOrderWorker))
	for {
		select {
		case <-ctx.Done():
			log.Info("order worker stopping")
			return
		case d, ok := <-msgs:
			if !ok {
				log.Error("delivery channel closed")
				return
			}
			handle(ctx, handler, d, log)
		}
	}
}

// handle 成功 ack；格式错误直接丢弃；其他错误重新入队
func handle(ctx context.Context, h *service.OrderEventHandler, d amqp.Delivery, log *zap.Logger) {
	err := h.Handle(ctx, d.Body)
	switch {
	case err == nil:
		if err := d.Ack(false); err != nil {
			log.Warn("ack failed", zap.Error(err))
		}
	case errors.Is(err, service.ErrMalformedEvent):
		log.Warn("drop malformed event", zap.String("routing_key", d.RoutingKey), zap.Error(err))
		_ = d.Nack(false, false)
	default:
		log.Error("handle event failed, requeue", zap.String("routing_key", d.RoutingKey), zap.Error(err))
		_ = d.Nack(false, true)
	}
}
