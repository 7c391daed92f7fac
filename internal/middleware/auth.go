package middleware

import (
	"errors"

	"github.com/kataras/iris/v12"

	"github.com/example/xiaoyuanbao/internal/auth"
	"github.com/example/xiaoyuanbao/internal/service"
)

// UserIDKey 鉴权通过后写入 ctx.Values() 的用户 ID
const UserIDKey = "user_id"

// RequireAuth 校验 Bearer token，失败返回 401
func RequireAuth(a *auth.Authenticator) iris.Handler {
	return func(ctx iris.Context) {
		uid, err := a.Authenticate(ctx.Request().Context(), ctx.GetHeader("Authorization"))
		if err != nil {
			msg := "登录已过期，请重新登录"
			if errors.Is(err, auth.ErrMissingToken) {
				msg = "请先登录"
			}
			e := service.Unauthorized(msg)
			abort(ctx, e.Kind.HTTPStatus(), e.Code, e.Message)
			return
		}
		ctx.Values().Set(UserIDKey, uid)
		ctx.Next()
	}
}

// UserID 取当前登录用户
func UserID(ctx iris.Context) string {
	return ctx.Values().GetString(UserIDKey)
}
