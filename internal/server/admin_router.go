package server

import (
	"github.com/kataras/iris/v12"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/xiaoyuanbao/internal/service"
)

// NewAdminApp 运维端口：Prometheus 指标与运行统计，不对外暴露
func NewAdminApp(mon *service.Monitor) *iris.Application {
	app := iris.New()
	app.Logger().SetLevel("warn")
	RegisterAdminRoutes(app, mon)
	return app
}

func RegisterAdminRoutes(app *iris.Application, mon *service.Monitor) {
	app.Get("/metrics", iris.FromStd(promhttp.HandlerFor(mon.Registry, promhttp.HandlerOpts{})))

	api := app.Party("/api")
	api.Get("/health", func(ctx iris.Context) {
		ok(ctx, iris.Map{"status": "ok"})
	})
	api.Get("/stats", func(ctx iris.Context) {
		ok(ctx, mon.Stats())
	})
}
