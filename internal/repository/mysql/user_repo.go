package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/xiaoyuanbao/internal/datamodels/user"
)

type userRepo struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*user.User, error) {
	out := make(map[string]*user.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []*user.User
	if err := r.db.WithContext(ctx).
		Select("id", "nickname", "avatar").
		Where("id IN ?", ids).
		Find(&list).Error; err != nil {
		return nil, err
	}
	for _, u := range list {
		out[u.ID] = u
	}
	return out, nil
}

func (r *userRepo) Create(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) CreateSchool(ctx context.Context, s *user.School) error {
	return r.db.WithContext(ctx).Create(s).Error
}
