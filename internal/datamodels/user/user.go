package user

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("user not found")

// School 学校
type School struct {
	ID        string    `gorm:"primaryKey;size:26" json:"id"`
	Name      string    `gorm:"size:64;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
}

// User 用户模型，生命周期（注册/认证/信用）不在本服务内维护
type User struct {
	ID          string    `gorm:"primaryKey;size:26" json:"id"`
	Phone       string    `gorm:"uniqueIndex;size:20;not null" json:"phone,omitempty"`
	Nickname    string    `gorm:"size:64;not null" json:"nickname"`
	Avatar      string    `gorm:"size:255" json:"avatar,omitempty"`
	SchoolID    *string   `gorm:"size:26;index" json:"schoolId,omitempty"`
	CreditScore int       `gorm:"not null;default:100" json:"creditScore,omitempty"`
	CreditLevel string    `gorm:"size:16" json:"creditLevel,omitempty"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// Summary 对外展示的用户摘要
type Summary struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar,omitempty"`
}

func (u *User) Summary() *Summary {
	if u == nil {
		return nil
	}
	return &Summary{ID: u.ID, Nickname: u.Nickname, Avatar: u.Avatar}
}

// HasSchool 是否已绑定学校
func (u *User) HasSchool() bool {
	return u != nil && u.SchoolID != nil && *u.SchoolID != ""
}

// Repository 用户仓储接口
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// GetByIDs 批量查询，返回 id -> 用户；不存在的 id 不出现在结果中
	GetByIDs(ctx context.Context, ids []string) (map[string]*User, error)
	Create(ctx context.Context, u *User) error
	CreateSchool(ctx context.Context, s *School) error
}
