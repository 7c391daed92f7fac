package message

import (
	"context"
	"time"

	"github.com/example/xiaoyuanbao/internal/datamodels/user"
)

type Type string

const (
	TypeText  Type = "text"
	TypeImage Type = "image"
)

// Message 用户之间的私信；创建后只有 IsRead 会由 false 变为 true
type Message struct {
	ID         string    `gorm:"primaryKey;size:26" json:"id"`
	SenderID   string    `gorm:"size:26;index:idx_msg_pair,priority:1;not null" json:"senderId"`
	ReceiverID string    `gorm:"size:26;index:idx_msg_pair,priority:2;index:idx_msg_unread,priority:1;not null" json:"receiverId"`
	Content    string    `gorm:"size:1000;not null" json:"content"`
	Type       Type      `gorm:"size:16;not null" json:"type"`
	IsRead     bool      `gorm:"not null;default:false;index:idx_msg_unread,priority:2" json:"isRead"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`

	Sender *user.User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// Counterpart 返回相对 userID 的另一方
func (m *Message) Counterpart(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Repository 私信仓储接口
type Repository interface {
	Create(ctx context.Context, m *Message) error
	// ListThread 两人之间的消息，按时间升序分页，附带发送者摘要
	ListThread(ctx context.Context, a, b string, offset, limit int) ([]*Message, int64, error)
	// MarkRead 把 from 发给 to 的未读消息全部置为已读，返回影响条数
	MarkRead(ctx context.Context, from, to string) (int64, error)
	// LatestPerPair 涉及 userID 的每个 (sender, receiver) 组合的最新一条，按时间倒序
	LatestPerPair(ctx context.Context, userID string, limit int) ([]*Message, error)
	// UnreadCounts 一次分组查询各发送者发给 receiverID 的未读数
	UnreadCounts(ctx context.Context, receiverID string, senderIDs []string) (map[string]int64, error)
}
