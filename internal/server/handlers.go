package server

import (
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/xiaoyuanbao/internal/datamodels/item"
	"github.com/example/xiaoyuanbao/internal/datamodels/message"
	"github.com/example/xiaoyuanbao/internal/datamodels/order"
	"github.com/example/xiaoyuanbao/internal/middleware"
	"github.com/example/xiaoyuanbao/internal/service"
)

type handlers struct {
	svc *Services
	log *zap.Logger
}

func (h *handlers) fail(ctx iris.Context, err error) { fail(ctx, h.log, err) }

func (h *handlers) health(ctx iris.Context) {
	ok(ctx, iris.Map{"status": "ok"})
}

func (h *handlers) listCategories(ctx iris.Context) {
	list, err := h.svc.Categories.List(ctx.Request().Context())
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ok(ctx, list)
}

func (h *handlers) listItems(ctx iris.Context) {
	f, p, err := parseListItems(ctx)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	list, total, err := h.svc.Catalog.List(ctx.Request().Context(), f, p)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	if list == nil {
		list = []*item.Item{}
	}
	okPage(ctx, list, p, total)
}

func (h *handlers) getItem(ctx iris.Context) {
	it, err := h.svc.Catalog.Get(ctx.Request().Context(), ctx.Params().Get("id"))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ok(ctx, it)
}

func (h *handlers) createItem(ctx iris.Context) {
	var req createItemRequest
	if err := bindJSON(ctx, &req); err != nil {
		h.fail(ctx, err)
		return
	}
	it, err := h.svc.Catalog.Create(ctx.Request().Context(), middleware.UserID(ctx), req.input())
	if err != nil {
		h.fail(ctx, err)
		return
	}
	created(ctx, it)
}

func (h *handlers) updateItem(ctx iris.Context) {
	var req updateItemRequest
	if err := bindJSON(ctx, &req); err != nil {
		h.fail(ctx, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.fail(ctx, err)
		return
	}
	it, err := h.svc.Catalog.Update(ctx.Request().Context(), middleware.UserID(ctx), ctx.Params().Get("id"), patch)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ok(ctx, it)
}

func (h *handlers) deleteItem(ctx iris.Context) {
	id := ctx.Params().Get("id")
	if err := h.svc.Catalog.Delete(ctx.Request().Context(), middleware.UserID(ctx), id); err != nil {
		h.fail(ctx, err)
		return
	}
	ok(ctx, iris.Map{"id": id, "status": item.StatusRemoved})
}

func (h *handlers) createOrder(ctx iris.Context) {
	var req createOrderRequest
	if err := bindJSON(ctx, &req); err != nil {
		h.fail(ctx, err)
		return
	}
	o, err := h.svc.Orders.Create(ctx.Request().Context(), middleware.UserID(ctx), req.input())
	if err != nil {
		h.fail(ctx, err)
		return
	}
	created(ctx, o)
}

func (h *handlers) listOrders(ctx iris.Context) {
	role := order.Role(ctx.URLParamTrim("type"))
	list, err := h.svc.Orders.List(ctx.Request().Context(), middleware.UserID(ctx), role, ctx.URLParamTrim("status"))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	if list == nil {
		list = []*order.Order{}
	}
	ok(ctx, list)
}

func (h *handlers) getOrder(ctx iris.Context) {
	o, err := h.svc.Orders.Get(ctx.Request().Context(), middleware.UserID(ctx), ctx.Params().Get("id"))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ok(ctx, o)
}

// applyOrderAction 只返回流转后的状态
func (h *handlers) applyOrderAction(ctx iris.Context) {
	var req orderActionRequest
	if err := bindJSON(ctx, &req); err != nil {
		h.fail(ctx, err)
		return
	}
	o, err := h.svc.Orders.Apply(ctx.Request().Context(), middleware.UserID(ctx), ctx.Params().Get("id"), order.Action(req.Action))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ok(ctx, iris.Map{"id": o.ID, "status": o.Status})
}

// messages 带 with 参数时返回与对方的聊天记录，否则返回会话列表
func (h *handlers) messages(ctx iris.Context) {
	uid := middleware.UserID(ctx)
	with := ctx.URLParamTrim("with")
	if with == "" {
		list, err := h.svc.Messages.Conversations(ctx.Request().Context(), uid)
		if err != nil {
			h.fail(ctx, err)
			return
		}
		if list == nil {
			list = []service.Conversation{}
		}
		ok(ctx, list)
		return
	}

	p, err := parsePage(ctx)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	list, total, err := h.svc.Messages.Thread(ctx.Request().Context(), uid, with, p)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	if list == nil {
		list = []*message.Message{}
	}
	okPage(ctx, list, p, total)
}

func (h *handlers) sendMessage(ctx iris.Context) {
	var req sendMessageRequest
	if err := bindJSON(ctx, &req); err != nil {
		h.fail(ctx, err)
		return
	}
	m, err := h.svc.Messages.Send(ctx.Request().Context(), middleware.UserID(ctx), req.input())
	if err != nil {
		h.fail(ctx, err)
		return
	}
	created(ctx, m)
}
