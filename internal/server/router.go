package server

import (
	"net/http"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/recover"
	"go.uber.org/zap"

	"github.com/example/xiaoyuanbao/internal/middleware"
)

// NewApp 构建对外 API
func NewApp(s *Services, log *zap.Logger) *iris.Application {
	app := iris.New()
	app.Logger().SetLevel("warn")
	app.UseRouter(recover.New())
	app.Use(middleware.AccessLog(log, s.Monitor))

	app.OnErrorCode(http.StatusNotFound, func(ctx iris.Context) {
		_ = ctx.JSON(Envelope{Success: false, Error: &ErrorBody{Code: "NOT_FOUND", Message: "接口不存在"}})
	})

	RegisterRoutes(app, s, log)
	return app
}

// RegisterRoutes 注册 /api 下全部路由；写接口先鉴权再按用户限流
func RegisterRoutes(app *iris.Application, s *Services, log *zap.Logger) {
	h := &handlers{svc: s, log: log}
	authed := middleware.RequireAuth(s.Auth)
	limited := s.Limiter.Handler()

	api := app.Party("/api")
	api.Get("/health", h.health)
	api.Get("/categories", h.listCategories)

	items := api.Party("/items")
	{
		items.Get("/", h.listItems)
		items.Get("/{id}", h.getItem)
		items.Post("/", authed, limited, h.createItem)
		items.Post("/create", authed, limited, h.createItem)
		items.Patch("/{id}", authed, limited, h.updateItem)
		items.Delete("/{id}", authed, limited, h.deleteItem)
	}

	orders := api.Party("/orders", authed)
	{
		orders.Post("/", limited, h.createOrder)
		orders.Get("/", h.listOrders)
		orders.Get("/{id}", h.getOrder)
		orders.Patch("/{id}", limited, h.applyOrderAction)
	}

	messages := api.Party("/messages", authed)
	{
		messages.Get("/", h.messages)
		messages.Post("/", limited, h.sendMessage)
	}
}
