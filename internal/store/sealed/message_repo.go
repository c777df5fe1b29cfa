// Package sealed keeps message content encrypted at rest by wrapping a
// MessageRepository. Callers above it only ever see plaintext.
package sealed

import (
	"context"
	"fmt"
	"time"

	"messaging_go/internal/domain"
)

// Cipher is implemented by security.ContentCipher. Content is sealed per
// conversation.
type Cipher interface {
	Seal(conversationID int64, plain string) (string, error)
	Open(conversationID int64, sealed string) (string, error)
}

type MessageRepo struct {
	inner  domain.MessageRepository
	cipher Cipher
}

func NewMessageRepo(inner domain.MessageRepository, cipher Cipher) *MessageRepo {
	return &MessageRepo{inner: inner, cipher: cipher}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

// Create stores an encrypted copy of m. The ID assigned by storage is copied
// back; m.Content stays plaintext.
func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	enc, err := r.cipher.Seal(m.ConversationID, m.Content)
	if err != nil {
		return fmt.Errorf("encrypt message: %w", err)
	}
	stored := *m
	stored.Content = enc
	if err := r.inner.Create(ctx, &stored); err != nil {
		return err
	}
	m.ID = stored.ID
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	m, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.open(m)
}

func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID int64) ([]*domain.Message, error) {
	msgs, err := r.inner.ListForConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		if _, err := r.open(m); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}

func (r *MessageRepo) LatestForConversation(ctx context.Context, conversationID int64) (*domain.Message, error) {
	m, err := r.inner.LatestForConversation(ctx, conversationID)
	if err != nil || m == nil {
		return m, err
	}
	return r.open(m)
}

func (r *MessageRepo) CountUnread(ctx context.Context, conversationID, receiverID int64) (int64, error) {
	return r.inner.CountUnread(ctx, conversationID, receiverID)
}

func (r *MessageRepo) MarkRead(ctx context.Context, id int64, at time.Time) (bool, error) {
	return r.inner.MarkRead(ctx, id, at)
}

func (r *MessageRepo) open(m *domain.Message) (*domain.Message, error) {
	plain, err := r.cipher.Open(m.ConversationID, m.Content)
	if err != nil {
		return nil, fmt.Errorf("decrypt message %d: %w", m.ID, err)
	}
	m.Content = plain
	return m, nil
}
