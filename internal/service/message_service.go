package service

import (
	"context"
	"errors"
	"time"

	"github.com/example/xiaoyuanbao/internal/datamodels/message"
	"github.com/example/xiaoyuanbao/internal/datamodels/user"
	"github.com/example/xiaoyuanbao/internal/idgen"
)

// 会话列表扫描的最新消息条数
const conversationScanLimit = 50

type MessageService struct {
	Deps
}

func NewMessageService(d Deps) *MessageService {
	return &MessageService{Deps: d.withDefaults()}
}

// SendMessageInput 发送私信参数
type SendMessageInput struct {
	ReceiverID string
	Content    string
	Type       message.Type
}

// Send 先确认接收者存在，再拒绝给自己发
func (s *MessageService) Send(ctx context.Context, senderID string, in SendMessageInput) (*message.Message, error) {
	if _, err := s.Users.GetByID(ctx, in.ReceiverID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, NotFound("接收者不存在")
		}
		return nil, s.internal("load receiver", err)
	}
	if in.ReceiverID == senderID {
		return nil, BadRequest("", "不能给自己发消息")
	}

	typ := in.Type
	switch typ {
	case "":
		typ = message.TypeText
	case message.TypeText, message.TypeImage:
	default:
		return nil, Validation("type 只能是 text 或 image")
	}

	m := &message.Message{
		ID:         idgen.New(),
		SenderID:   senderID,
		ReceiverID: in.ReceiverID,
		Content:    in.Content,
		Type:       typ,
		CreatedAt:  time.Now(),
	}
	if err := s.Messages.Create(ctx, m); err != nil {
		return nil, s.internal("create message", err)
	}
	if sender, err := s.Users.GetByID(ctx, senderID); err == nil {
		m.Sender = &user.User{ID: sender.ID, Nickname: sender.Nickname, Avatar: sender.Avatar}
	}
	return m, nil
}

// Thread 返回与 with 的消息（时间升序），并把对方发来的未读消息置为已读。
// 返回的是置已读之前读到的快照。
func (s *MessageService) Thread(ctx context.Context, userID, with string, p Page) ([]*message.Message, int64, error) {
	p = p.Normalize()
	list, total, err := s.Messages.ListThread(ctx, userID, with, p.Offset(), p.PageSize)
	if err != nil {
		return nil, 0, s.internal("list thread", err)
	}
	if _, err := s.Messages.MarkRead(ctx, with, userID); err != nil {
		return nil, 0, s.internal("mark read", err)
	}
	return list, total, nil
}

// Conversation 会话列表中的一项
type Conversation struct {
	User        *user.Summary    `json:"user"`
	LastMessage *message.Message `json:"lastMessage"`
	UnreadCount int64            `json:"unreadCount"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Conversations 按时间倒序扫描最新消息，每个联系人只保留第一次出现的那条
func (s *MessageService) Conversations(ctx context.Context, userID string) ([]Conversation, error) {
	latest, err := s.Messages.LatestPerPair(ctx, userID, conversationScanLimit)
	if err != nil {
		return nil, s.internal("scan conversations", err)
	}

	var (
		order []string
		last  = make(map[string]*message.Message)
	)
	for _, m := range latest {
		contact := m.Counterpart(userID)
		if _, seen := last[contact]; seen {
			continue
		}
		last[contact] = m
		order = append(order, contact)
	}
	if len(order) == 0 {
		return []Conversation{}, nil
	}

	users, err := s.Users.GetByIDs(ctx, order)
	if err != nil {
		return nil, s.internal("load contacts", err)
	}
	unread, err := s.Messages.UnreadCounts(ctx, userID, order)
	if err != nil {
		return nil, s.internal("count unread", err)
	}

	out := make([]Conversation, 0, len(order))
	for _, contact := range order {
		u, ok := users[contact]
		if !ok {
			continue
		}
		m := last[contact]
		out = append(out, Conversation{
			User:        u.Summary(),
			LastMessage: m,
			UnreadCount: unread[contact],
			CreatedAt:   m.CreatedAt,
		})
	}
	return out, nil
}
