package server

import (
	"net/http"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/xiaoyuanbao/internal/service"
)

// Envelope 所有接口统一的响应结构
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta 分页信息
type Meta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

func ok(ctx iris.Context, data interface{}) {
	_ = ctx.JSON(Envelope{Success: true, Data: data})
}

func created(ctx iris.Context, data interface{}) {
	ctx.StatusCode(http.StatusCreated)
	_ = ctx.JSON(Envelope{Success: true, Data: data})
}

func okPage(ctx iris.Context, data interface{}, p service.Page, total int64) {
	_ = ctx.JSON(Envelope{
		Success: true,
		Data:    data,
		Meta:    &Meta{Page: p.Page, PageSize: p.PageSize, Total: total},
	})
}

// fail 把错误转换为对应状态码；内部错误只记日志，不向调用方暴露细节
func fail(ctx iris.Context, log *zap.Logger, err error) {
	ae := service.AsAppError(err)
	if ae.Kind == service.KindInternal {
		log.Error("request failed",
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Error(ae.Err))
	}
	ctx.StopWithJSON(ae.Kind.HTTPStatus(), Envelope{
		Success: false,
		Error:   &ErrorBody{Code: ae.Code, Message: ae.Message},
	})
}
