package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/xiaoyuanbao/internal/datamodels/order"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	err := r.db.WithContext(ctx).Omit("Item", "Buyer", "Seller").Create(o).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return order.ErrDuplicateOrderNo
	}
	return err
}

func (r *orderRepo) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func userSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "nickname", "avatar")
}

// 详情里需要双方手机号用于线下联系
func userContact(db *gorm.DB) *gorm.DB {
	return db.Select("id", "nickname", "avatar", "phone")
}

func itemSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "title", "price", "images", "status")
}

func (r *orderRepo) GetDetail(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).
		Preload("Item").
		Preload("Buyer", userContact).
		Preload("Seller", userContact).
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context, f order.ListFilter) ([]*order.Order, error) {
	q := r.db.WithContext(ctx)
	if f.Role == order.RoleSeller {
		q = q.Where("seller_id = ?", f.UserID)
	} else {
		q = q.Where("buyer_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var list []*order.Order
	if err := q.
		Preload("Item", itemSummary).
		Preload("Buyer", userSummary).
		Preload("Seller", userSummary).
		Order("created_at DESC").
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id string, from, to order.Status, payTime *time.Time) error {
	updates := map[string]interface{}{"status": to}
	if payTime != nil {
		updates["pay_time"] = *payTime
	}
	res := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return order.ErrStatusConflict
	}
	return nil
}
