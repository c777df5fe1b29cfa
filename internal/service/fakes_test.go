package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"messaging_go/internal/domain"
)

// memConversations enforces the unordered pair uniqueness like the SQL stores.
type memConversations struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.Conversation
	byPair map[[2]int64]int64
}

func newMemConversations() *memConversations {
	return &memConversations{
		byID:   map[int64]*domain.Conversation{},
		byPair: map[[2]int64]int64{},
	}
}

func pairKey(a, b int64) [2]int64 {
	if a > b {
		a, b = b, a
	}
	return [2]int64{a, b}
}

func (r *memConversations) Create(_ context.Context, c *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(c.ParticipantA, c.ParticipantB)
	if _, ok := r.byPair[key]; ok {
		return domain.ErrConflict
	}
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.byID[c.ID] = &cp
	r.byPair[key] = c.ID
	return nil
}

func (r *memConversations) GetByID(_ context.Context, id int64) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memConversations) FindByParticipants(_ context.Context, a, b int64) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byPair[pairKey(a, b)]
	if !ok {
		return nil, nil
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *memConversations) ListForUser(_ context.Context, userID int64) ([]*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*domain.Conversation
	for _, c := range r.byID {
		if c.HasParticipant(userID) {
			cp := *c
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].UpdatedAt.After(res[j].UpdatedAt) })
	return res, nil
}

func (r *memConversations) Touch(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		c.UpdatedAt = at
	}
	return nil
}

func (r *memConversations) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type memMessages struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.Message
	// precision, when set, truncates stored timestamps the way a
	// TIMESTAMPTZ column does.
	precision time.Duration
}

func newMemMessages() *memMessages {
	return &memMessages{byID: map[int64]*domain.Message{}}
}

func (r *memMessages) Create(_ context.Context, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	cp := *m
	if r.precision > 0 {
		cp.SentAt = cp.SentAt.Truncate(r.precision)
	}
	r.byID[m.ID] = &cp
	return nil
}

func (r *memMessages) GetByID(_ context.Context, id int64) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMessages) ListForConversation(_ context.Context, conversationID int64) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*domain.Message
	for _, m := range r.byID {
		if m.ConversationID == conversationID {
			cp := *m
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].SentAt.Equal(res[j].SentAt) {
			return res[i].SentAt.Before(res[j].SentAt)
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

func (r *memMessages) LatestForConversation(ctx context.Context, conversationID int64) (*domain.Message, error) {
	msgs, _ := r.ListForConversation(ctx, conversationID)
	if len(msgs) == 0 {
		return nil, nil
	}
	return msgs[len(msgs)-1], nil
}

func (r *memMessages) CountUnread(_ context.Context, conversationID, receiverID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.byID {
		if m.ConversationID == conversationID && m.ReceiverID == receiverID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *memMessages) MarkRead(_ context.Context, id int64, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok || m.IsRead {
		return false, nil
	}
	if r.precision > 0 {
		at = at.Truncate(r.precision)
	}
	m.IsRead = true
	m.ReadAt = &at
	return true, nil
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) ResolveProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockDirectory) ListContacts(ctx context.Context, userID int64) ([]*domain.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Profile), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyUser(userID int64, channel string, payload any) {
	m.Called(userID, channel, payload)
}

type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) MessageSent(msg *domain.Message) { m.Called(msg) }
func (m *MockEvents) MessageRead(msg *domain.Message) { m.Called(msg) }
