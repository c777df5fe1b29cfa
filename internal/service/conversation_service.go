package service

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"messaging_go/internal/domain"
)

// GetConversationSummaries builds the inbox of userID. Every summary needs
// the other participant's profile; any directory failure fails the whole
// call.
func (s *MessagingService) GetConversationSummaries(
	ctx context.Context,
	userID int64,
) ([]*domain.ConversationSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, upstream(fmt.Errorf("list conversations: %w", err))
	}

	summaries := make([]*domain.ConversationSummary, len(convs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(profileConcurrency)
	for i, conv := range convs {
		g.Go(func() error {
			sum, err := s.summarize(gctx, conv, userID)
			if err != nil {
				return err
			}
			summaries[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, upstream(err)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessageAt.After(summaries[j].LastMessageAt)
	})
	return summaries, nil
}

// CreateOrGetConversation finds or creates the conversation between the two
// users and refreshes its updatedAt. The summary is seen by senderID.
func (s *MessagingService) CreateOrGetConversation(
	ctx context.Context,
	senderID, receiverID int64,
) (*domain.ConversationSummary, error) {
	if err := validatePair(senderID, receiverID); err != nil {
		return nil, err
	}

	now := s.timestamp()
	conv, err := s.findOrCreate(ctx, senderID, receiverID, now)
	if err != nil {
		return nil, err
	}
	if err := s.touch(ctx, conv, now); err != nil {
		return nil, err
	}

	rctx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()
	sum, err := s.summarize(rctx, conv, senderID)
	if err != nil {
		return nil, upstream(err)
	}
	return sum, nil
}

// GetConversationDetails returns both profiles and the full history of a
// conversation the requester takes part in.
func (s *MessagingService) GetConversationDetails(
	ctx context.Context,
	conversationID, requestingUserID int64,
) (*domain.ConversationDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, upstream(fmt.Errorf("get conversation: %w", err))
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: conversation %d", domain.ErrNotFound, conversationID)
	}
	if !conv.HasParticipant(requestingUserID) {
		return nil, fmt.Errorf("%w: user %d is not a participant of conversation %d", domain.ErrForbidden, requestingUserID, conversationID)
	}

	detail := &domain.ConversationDetail{
		ID:        conv.ID,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.directory.ResolveProfile(gctx, conv.ParticipantA)
		detail.Participant1 = p
		return err
	})
	g.Go(func() error {
		p, err := s.directory.ResolveProfile(gctx, conv.ParticipantB)
		detail.Participant2 = p
		return err
	})
	g.Go(func() error {
		msgs, err := s.messages.ListForConversation(gctx, conv.ID)
		if err != nil {
			return fmt.Errorf("list messages: %w", err)
		}
		if msgs == nil {
			msgs = []*domain.Message{}
		}
		detail.Messages = msgs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, upstream(err)
	}
	return detail, nil
}

// ListContacts returns the directory contacts of userID.
func (s *MessagingService) ListContacts(ctx context.Context, userID int64) ([]*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	contacts, err := s.directory.ListContacts(ctx, userID)
	if err != nil {
		return nil, upstream(err)
	}
	if contacts == nil {
		contacts = []*domain.Profile{}
	}
	return contacts, nil
}

func (s *MessagingService) summarize(
	ctx context.Context,
	conv *domain.Conversation,
	userID int64,
) (*domain.ConversationSummary, error) {
	other, err := s.directory.ResolveProfile(ctx, conv.OtherParticipant(userID))
	if err != nil {
		return nil, err
	}
	last, err := s.messages.LatestForConversation(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("latest message: %w", err)
	}
	unread, err := s.messages.CountUnread(ctx, conv.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}

	sum := &domain.ConversationSummary{
		ID:               conv.ID,
		LastMessageAt:    conv.UpdatedAt,
		OtherParticipant: other,
		LastMessage:      last,
		UnreadCount:      unread,
	}
	if last != nil {
		sum.LastMessageAt = last.SentAt
	}
	return sum, nil
}
