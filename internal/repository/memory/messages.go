package memory

import (
	"context"
	"sort"
	"time"

	"github.com/example/xiaoyuanbao/internal/datamodels/message"
	"github.com/example/xiaoyuanbao/internal/idgen"
)

type messageRepo struct {
	guard
}

func (r *messageRepo) Create(_ context.Context, m *message.Message) error {
	defer r.lock()()
	if m.ID == "" {
		m.ID = idgen.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.s.messages = append(r.s.messages, cloneMessage(m))
	return nil
}

func between(m *message.Message, a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

// 按创建时间升序，同一时刻保持写入顺序
func (r *messageRepo) sortedAsc() []*message.Message {
	list := append([]*message.Message(nil), r.s.messages...)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func (r *messageRepo) ListThread(_ context.Context, a, b string, offset, limit int) ([]*message.Message, int64, error) {
	defer r.lock()()
	var thread []*message.Message
	for _, m := range r.sortedAsc() {
		if between(m, a, b) {
			thread = append(thread, m)
		}
	}

	total := int64(len(thread))
	start := min(max(offset, 0), len(thread))
	end := len(thread)
	if limit > 0 {
		end = min(start+limit, len(thread))
	}

	out := make([]*message.Message, 0, end-start)
	for _, m := range thread[start:end] {
		c := cloneMessage(m)
		c.Sender = summaryUser(r.s.users[m.SenderID])
		out = append(out, c)
	}
	return out, total, nil
}

func (r *messageRepo) MarkRead(_ context.Context, from, to string) (int64, error) {
	defer r.lock()()
	var n int64
	for _, m := range r.s.messages {
		if m.SenderID == from && m.ReceiverID == to && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *messageRepo) LatestPerPair(_ context.Context, userID string, limit int) ([]*message.Message, error) {
	defer r.lock()()
	type pair struct{ from, to string }
	latest := make(map[pair]*message.Message)
	for _, m := range r.sortedAsc() {
		if m.SenderID != userID && m.ReceiverID != userID {
			continue
		}
		latest[pair{m.SenderID, m.ReceiverID}] = m
	}

	list := make([]*message.Message, 0, len(latest))
	for _, m := range latest {
		c := cloneMessage(m)
		c.Sender = summaryUser(r.s.users[m.SenderID])
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *messageRepo) UnreadCounts(_ context.Context, receiverID string, senderIDs []string) (map[string]int64, error) {
	defer r.lock()()
	want := make(map[string]struct{}, len(senderIDs))
	for _, id := range senderIDs {
		want[id] = struct{}{}
	}
	out := make(map[string]int64, len(senderIDs))
	for _, m := range r.s.messages {
		if m.ReceiverID != receiverID || m.IsRead {
			continue
		}
		if _, ok := want[m.SenderID]; ok {
			out[m.SenderID]++
		}
	}
	return out, nil
}
