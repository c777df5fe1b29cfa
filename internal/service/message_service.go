package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	"messaging_go/internal/domain"
)

// SendMessage persists a direct message, creating the conversation for the
// pair on first contact. Delivery to both parties and event publication
// happen after persistence and never fail the call.
func (s *MessagingService) SendMessage(
	ctx context.Context,
	senderID, receiverID int64,
	content string,
) (*domain.Message, error) {
	if err := validatePair(senderID, receiverID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content is empty", domain.ErrInvalidRequest)
	}
	if utf8.RuneCountInString(content) > s.maxMessageLength {
		return nil, fmt.Errorf("%w: message content exceeds %d characters", domain.ErrInvalidRequest, s.maxMessageLength)
	}

	now := s.timestamp()
	conv, err := s.findOrCreate(ctx, senderID, receiverID, now)
	if err != nil {
		return nil, err
	}
	// Touched even right after creation.
	if err := s.touch(ctx, conv, now); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
		SentAt:         now,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.notifier.NotifyUser(receiverID, domain.ChannelMessages, msg)
	s.notifier.NotifyUser(senderID, domain.ChannelMessages, msg)
	s.events.MessageSent(msg)

	log.Printf("messaging: message %d sent %d -> %d (conversation %d)", msg.ID, senderID, receiverID, conv.ID)
	return msg, nil
}

// MarkMessageAsRead flips a message to read on behalf of its receiver. A
// message already read is returned unchanged and no receipt is sent.
func (s *MessagingService) MarkMessageAsRead(
	ctx context.Context,
	messageID, requestingUserID int64,
) (*domain.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.ReceiverID != requestingUserID {
		return nil, fmt.Errorf("%w: user %d is not the receiver of message %d", domain.ErrForbidden, requestingUserID, messageID)
	}
	if msg.IsRead {
		return msg, nil
	}

	now := s.timestamp()
	changed, err := s.messages.MarkRead(ctx, messageID, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		// A concurrent reader won; report the stored state.
		return s.messages.GetByID(ctx, messageID)
	}
	msg.IsRead = true
	msg.ReadAt = &now

	s.notifier.NotifyUser(msg.SenderID, domain.ChannelReadReceipts, msg.ID)
	s.events.MessageRead(msg)
	return msg, nil
}

// GetMessageByID returns a message without checking who asks for it;
// callers exposing it must check participation themselves.
func (s *MessagingService) GetMessageByID(ctx context.Context, messageID int64) (*domain.Message, error) {
	return s.messages.GetByID(ctx, messageID)
}

// NotifyTyping sends an ephemeral typing notice to receiverID.
func (s *MessagingService) NotifyTyping(
	ctx context.Context,
	senderID int64,
	displayName string,
	receiverID int64,
) error {
	if err := validatePair(senderID, receiverID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = strconv.FormatInt(senderID, 10)
	}
	s.notifier.NotifyUser(receiverID, domain.ChannelTyping, displayName)
	return nil
}
