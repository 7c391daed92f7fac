package middleware

import (
	"strconv"
	"time"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// LatencyObserver 记录请求耗时，由 service.Monitor 实现
type LatencyObserver interface {
	ObserveRequest(method, route, code string, d time.Duration)
}

// AccessLog 每个请求结束后记一条日志
func AccessLog(log *zap.Logger, obs LatencyObserver) iris.Handler {
	return func(ctx iris.Context) {
		start := time.Now()
		ctx.Next()

		elapsed := time.Since(start)
		status := ctx.GetStatusCode()
		route := "unmatched"
		if r := ctx.GetCurrentRoute(); r != nil {
			route = r.Path()
		}
		if obs != nil {
			obs.ObserveRequest(ctx.Method(), route, strconv.Itoa(status), elapsed)
		}

		fields := []zap.Field{
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
			zap.String("ip", ctx.RemoteAddr()),
		}
		if uid := ctx.Values().GetString(UserIDKey); uid != "" {
			fields = append(fields, zap.String("user_id", uid))
		}
		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
