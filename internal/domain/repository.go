package domain

import (
	"context"
	"time"
)

// ConversationRepository defines persistence operations for conversations.
type ConversationRepository interface {
	// Create inserts c and fills its ID. It returns ErrConflict when a
	// conversation for the same unordered pair already exists.
	Create(ctx context.Context, c *Conversation) error
	GetByID(ctx context.Context, id int64) (*Conversation, error)
	// FindByParticipants matches the pair in either order; nil when absent.
	FindByParticipants(ctx context.Context, userA, userB int64) (*Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]*Conversation, error)
	Touch(ctx context.Context, id int64, at time.Time) error
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	// GetByID returns ErrNotFound when absent.
	GetByID(ctx context.Context, id int64) (*Message, error)
	ListForConversation(ctx context.Context, conversationID int64) ([]*Message, error)
	// LatestForConversation returns nil when the conversation has no messages.
	LatestForConversation(ctx context.Context, conversationID int64) (*Message, error)
	CountUnread(ctx context.Context, conversationID, receiverID int64) (int64, error)
	// MarkRead sets is_read/read_at only if the message is still unread and
	// reports whether this call performed the transition.
	MarkRead(ctx context.Context, id int64, at time.Time) (bool, error)
}

// Directory resolves user profiles from the external user directory.
type Directory interface {
	ResolveProfile(ctx context.Context, userID int64) (*Profile, error)
	ListContacts(ctx context.Context, userID int64) ([]*Profile, error)
}

// Notifier delivers a payload to the live sessions of a user. It must not
// block the caller and never reports delivery failures.
type Notifier interface {
	NotifyUser(userID int64, channel string, payload any)
}

// EventPublisher fans domain events out to asynchronous observers on a
// best-effort basis.
type EventPublisher interface {
	MessageSent(m *Message)
	MessageRead(m *Message)
}
