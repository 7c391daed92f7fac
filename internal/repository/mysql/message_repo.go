package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/xiaoyuanbao/internal/datamodels/message"
)

type messageRepo struct {
	db *gorm.DB
}

// NewMessageRepository 创建私信仓储
func NewMessageRepository(db *gorm.DB) message.Repository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Create(ctx context.Context, m *message.Message) error {
	return r.db.WithContext(ctx).Omit("Sender").Create(m).Error
}

func (r *messageRepo) ListThread(ctx context.Context, a, b string, offset, limit int) ([]*message.Message, int64, error) {
	q := r.db.WithContext(ctx).Model(&message.Message{}).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []*message.Message
	if err := q.
		Preload("Sender", userSummary).
		Order("created_at ASC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *messageRepo) MarkRead(ctx context.Context, from, to string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&message.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", from, to, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *messageRepo) LatestPerPair(ctx context.Context, userID string, limit int) ([]*message.Message, error) {
	latest := r.db.Model(&message.Message{}).
		Select("sender_id, receiver_id, MAX(created_at) AS max_created").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Group("sender_id, receiver_id")

	var list []*message.Message
	err := r.db.WithContext(ctx).
		Table("messages AS m").
		Select("m.*").
		Preload("Sender", userSummary).
		Joins("JOIN (?) AS t ON m.sender_id = t.sender_id AND m.receiver_id = t.receiver_id AND m.created_at = t.max_created", latest).
		Order("m.created_at DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

type unreadRow struct {
	SenderID string
	Cnt      int64
}

func (r *messageRepo) UnreadCounts(ctx context.Context, receiverID string, senderIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(senderIDs))
	if len(senderIDs) == 0 {
		return out, nil
	}
	var rows []unreadRow
	if err := r.db.WithContext(ctx).Model(&message.Message{}).
		Select("sender_id, COUNT(*) AS cnt").
		Where("receiver_id = ? AND is_read = ? AND sender_id IN ?", receiverID, false, senderIDs).
		Group("sender_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.SenderID] = row.Cnt
	}
	return out, nil
}
