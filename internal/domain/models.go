package domain

import "time"

// Real-time channels a user can be addressed on.
const (
	ChannelMessages     = "messages"
	ChannelReadReceipts = "read-receipts"
	ChannelTyping       = "typing"
)

// Conversation is a direct conversation between exactly two users. The pair
// {ParticipantA, ParticipantB} is unordered and unique.
type Conversation struct {
	ID           int64     `db:"id" json:"id"`
	ParticipantA int64     `db:"participant_a" json:"participantA"`
	ParticipantB int64     `db:"participant_b" json:"participantB"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID int64) int64 {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// Message is a single direct message. ReadAt is non-nil iff IsRead.
type Message struct {
	ID             int64      `db:"id" json:"id"`
	ConversationID int64      `db:"conversation_id" json:"conversationId"`
	SenderID       int64      `db:"sender_id" json:"senderId"`
	ReceiverID     int64      `db:"receiver_id" json:"receiverId"`
	Content        string     `db:"content" json:"content"` // encrypted at rest when a key is configured
	IsRead         bool       `db:"is_read" json:"isRead"`
	ReadAt         *time.Time `db:"read_at" json:"readAt"`
	SentAt         time.Time  `db:"sent_at" json:"sentAt"`
}

// Profile is the public profile of a user as returned by the user directory.
type Profile struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// ConversationSummary is the inbox view of a conversation for one user.
type ConversationSummary struct {
	ID               int64     `json:"id"`
	LastMessageAt    time.Time `json:"lastMessageAt"`
	OtherParticipant *Profile  `json:"otherParticipant"`
	LastMessage      *Message  `json:"lastMessage"`
	UnreadCount      int64     `json:"unreadCount"`
}

// ConversationDetail is the full view of a conversation.
type ConversationDetail struct {
	ID           int64      `json:"id"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Participant1 *Profile   `json:"participant1"`
	Participant2 *Profile   `json:"participant2"`
	Messages     []*Message `json:"messages"`
}

// Identity is the verified caller bound to a request or a ws connection.
type Identity struct {
	UserID   int64
	Username string
}
