package server

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"

	"github.com/example/xiaoyuanbao/internal/datamodels/item"
	"github.com/example/xiaoyuanbao/internal/datamodels/message"
	"github.com/example/xiaoyuanbao/internal/datamodels/order"
	"github.com/example/xiaoyuanbao/internal/service"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息里使用 json 字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var tagMessages = map[string]string{
	"required": "不能为空",
	"min":      "长度或数值过小",
	"max":      "长度或数值过大",
	"gt":       "数值过小",
	"url":      "必须是合法的 URL",
	"oneof":    "取值不合法",
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg, ok := tagMessages[fe.Tag()]
		if !ok {
			msg = "校验失败"
		}
		return service.Validation(fmt.Sprintf("%s %s", fe.Field(), msg))
	}
	return service.Validation(err.Error())
}

func bindJSON(ctx iris.Context, dst interface{}) error {
	if err := ctx.ReadJSON(dst); err != nil {
		return service.Validation("请求体不是合法的 JSON")
	}
	return validateStruct(dst)
}

// intParam 缺省时返回 def，格式错误返回校验错误
func intParam(ctx iris.Context, name string, def int) (int, error) {
	raw := ctx.URLParamTrim(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, service.Validation(name + " 必须是整数")
	}
	return n, nil
}

type createItemRequest struct {
	Title         string   `json:"title" validate:"required,min=2,max=50"`
	Description   string   `json:"description" validate:"required,min=10,max=2000"`
	Price         float64  `json:"price" validate:"required,gt=0.01"`
	OriginalPrice *float64 `json:"originalPrice" validate:"omitempty,gt=0.01"`
	Images        []string `json:"images" validate:"required,min=1,max=9,dive,url"`
	Condition     string   `json:"condition" validate:"required,oneof=全新 9成新 8成新 7成新 6成新以下"`
	CategoryID    string   `json:"categoryId" validate:"required"`
	Location      string   `json:"location" validate:"omitempty,max=128"`
	Type          string   `json:"type" validate:"omitempty,oneof=sale rent"`
}

func (r createItemRequest) input() service.CreateItemInput {
	return service.CreateItemInput{
		Title:         r.Title,
		Description:   r.Description,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		Images:        r.Images,
		Condition:     r.Condition,
		CategoryID:    r.CategoryID,
		Location:      r.Location,
		Type:          item.Type(r.Type),
	}
}

// updateItemRequest 只接收白名单字段，其他字段被忽略
type updateItemRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=2,max=50"`
	Description *string  `json:"description" validate:"omitempty,min=10,max=2000"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0.01"`
	Images      []string `json:"images" validate:"omitempty,max=9,dive,url"`
	Condition   *string  `json:"condition" validate:"omitempty,oneof=全新 9成新 8成新 7成新 6成新以下"`
	Status      *string  `json:"status" validate:"omitempty,oneof=available rented removed"`
}

func (r updateItemRequest) patch() (item.Patch, error) {
	if r.Images != nil && len(r.Images) == 0 {
		return item.Patch{}, service.Validation("images 至少需要 1 张")
	}
	p := item.Patch{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Images:      r.Images,
		Condition:   r.Condition,
	}
	if r.Status != nil {
		st := item.Status(*r.Status)
		p.Status = &st
	}
	return p, nil
}

type listItemsQuery struct {
	Page       int    `json:"page" validate:"min=1"`
	PageSize   int    `json:"pageSize" validate:"min=1,max=50"`
	CategoryID string `json:"categoryId"`
	SchoolID   string `json:"schoolId"`
	Status     string `json:"status" validate:"omitempty,oneof=available sold rented"`
	Type       string `json:"type" validate:"omitempty,oneof=sale rent"`
	Keyword    string `json:"keyword" validate:"max=50"`
	SortBy     string `json:"sortBy" validate:"omitempty,oneof=createdAt price views"`
	SortOrder  string `json:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

func parseListItems(ctx iris.Context) (item.Filter, service.Page, error) {
	var (
		q   listItemsQuery
		err error
	)
	if q.Page, err = intParam(ctx, "page", 1); err != nil {
		return item.Filter{}, service.Page{}, err
	}
	if q.PageSize, err = intParam(ctx, "pageSize", service.DefaultPageSize); err != nil {
		return item.Filter{}, service.Page{}, err
	}
	q.CategoryID = ctx.URLParamTrim("categoryId")
	q.SchoolID = ctx.URLParamTrim("schoolId")
	q.Status = ctx.URLParamTrim("status")
	q.Type = ctx.URLParamTrim("type")
	q.Keyword = ctx.URLParamTrim("keyword")
	q.SortBy = ctx.URLParamTrim("sortBy")
	q.SortOrder = ctx.URLParamTrim("sortOrder")
	if err := validateStruct(&q); err != nil {
		return item.Filter{}, service.Page{}, err
	}

	sortBy := item.SortField(q.SortBy)
	if sortBy == "" {
		sortBy = item.SortByCreatedAt
	}
	f := item.Filter{
		CategoryID: q.CategoryID,
		SchoolID:   q.SchoolID,
		Status:     item.Status(q.Status),
		Type:       item.Type(q.Type),
		Keyword:    q.Keyword,
		SortBy:     sortBy,
		Desc:       q.SortOrder != "asc",
	}
	return f, service.Page{Page: q.Page, PageSize: q.PageSize}, nil
}

func parsePage(ctx iris.Context) (service.Page, error) {
	var (
		p   service.Page
		err error
	)
	if p.Page, err = intParam(ctx, "page", 1); err != nil {
		return p, err
	}
	if p.PageSize, err = intParam(ctx, "pageSize", service.DefaultPageSize); err != nil {
		return p, err
	}
	if p.Page < 1 || p.PageSize < 1 || p.PageSize > service.MaxPageSize {
		return p, service.Validation("page 从 1 开始，pageSize 取 1-50")
	}
	return p, nil
}

type createOrderRequest struct {
	ItemID       string `json:"itemId" validate:"required"`
	DeliveryType string `json:"deliveryType" validate:"required,oneof=delivery pickup"`
	Address      string `json:"address" validate:"omitempty,max=255"`
	ContactPhone string `json:"contactPhone" validate:"required,min=11,max=20"`
	Remark       string `json:"remark" validate:"omitempty,max=255"`
}

func (r createOrderRequest) input() service.CreateOrderInput {
	return service.CreateOrderInput{
		ItemID:       r.ItemID,
		DeliveryType: order.DeliveryType(r.DeliveryType),
		Address:      r.Address,
		ContactPhone: r.ContactPhone,
		Remark:       r.Remark,
	}
}

type orderActionRequest struct {
	Action string `json:"action" validate:"required,oneof=pay ship confirm cancel"`
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required,min=1,max=1000"`
	Type       string `json:"type" validate:"omitempty,oneof=text image"`
}

func (r sendMessageRequest) input() service.SendMessageInput {
	return service.SendMessageInput{
		ReceiverID: r.ReceiverID,
		Content:    r.Content,
		Type:       message.Type(r.Type),
	}
}
