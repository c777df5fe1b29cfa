package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"messaging_go/internal/domain"
)

const (
	defaultMaxMessageLength = 5000
	defaultReadTimeout      = 10 * time.Second
	profileConcurrency      = 8
)

// Options tunes the engine. Zero values fall back to defaults.
type Options struct {
	MaxMessageLength int
	ReadTimeout      time.Duration
	Now              func() time.Time
}

// MessagingService is the conversation/message engine. It is safe for
// concurrent use; find-or-create relies on the storage uniqueness of the
// participant pair instead of in-process locks.
type MessagingService struct {
	conversations domain.ConversationRepository
	messages      domain.MessageRepository
	directory     domain.Directory
	notifier      domain.Notifier
	events        domain.EventPublisher

	maxMessageLength int
	readTimeout      time.Duration
	now              func() time.Time
}

func NewMessagingService(
	conversations domain.ConversationRepository,
	messages domain.MessageRepository,
	directory domain.Directory,
	notifier domain.Notifier,
	events domain.EventPublisher,
	opts Options,
) *MessagingService {
	s := &MessagingService{
		conversations:    conversations,
		messages:         messages,
		directory:        directory,
		notifier:         notifier,
		events:           events,
		maxMessageLength: opts.MaxMessageLength,
		readTimeout:      opts.ReadTimeout,
		now:              opts.Now,
	}
	if s.maxMessageLength <= 0 {
		s.maxMessageLength = defaultMaxMessageLength
	}
	if s.readTimeout <= 0 {
		s.readTimeout = defaultReadTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// timestamp is the engine clock cut to the microsecond precision every
// backing store keeps, so values handed back to callers match what a later
// read returns.
func (s *MessagingService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// findOrCreate returns the conversation for the unordered pair, creating it
// with ParticipantA=a when absent. A concurrent creator winning the race shows
// up as ErrConflict and is resolved by looking the pair up again.
func (s *MessagingService) findOrCreate(ctx context.Context, a, b int64, now time.Time) (*domain.Conversation, error) {
	conv, err := s.conversations.FindByParticipants(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	if conv != nil {
		return conv, nil
	}

	conv = &domain.Conversation{
		ParticipantA: a,
		ParticipantB: b,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.conversations.Create(ctx, conv)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	conv, err = s.conversations.FindByParticipants(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("find conversation after conflict: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation %d-%d missing after conflict", a, b)
	}
	return conv, nil
}

func (s *MessagingService) touch(ctx context.Context, conv *domain.Conversation, now time.Time) error {
	if err := s.conversations.Touch(ctx, conv.ID, now); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	conv.UpdatedAt = now
	return nil
}

func validatePair(a, b int64) error {
	if a <= 0 || b <= 0 {
		return fmt.Errorf("%w: user ids must be positive", domain.ErrInvalidRequest)
	}
	if a == b {
		return fmt.Errorf("%w: sender and receiver must differ", domain.ErrInvalidRequest)
	}
	return nil
}

// upstream marks an expired read deadline as an upstream failure. Errors
// already classified pass through.
func upstream(err error) error {
	if err == nil || errors.Is(err, domain.ErrUpstreamUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	return err
}
