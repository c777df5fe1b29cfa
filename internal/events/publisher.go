// Package events publishes message lifecycle events to asynchronous
// observers through asynq. Publication is best effort and runs off the
// write path.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"messaging_go/internal/domain"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Submitter runs a job asynchronously; satisfied by *delivery.Dispatcher.
type Submitter interface {
	Submit(name string, fn func(ctx context.Context) error) bool
}

// Routing names the queue and task types events are published under.
type Routing struct {
	Queue       string
	MessageSent string
	MessageRead string
}

// MessageReadEvent is the payload of a message-read task.
type MessageReadEvent struct {
	MessageID      int64      `json:"messageId"`
	ConversationID int64      `json:"conversationId"`
	SenderID       int64      `json:"senderId"`
	ReceiverID     int64      `json:"receiverId"`
	ReadAt         *time.Time `json:"readAt"`
}

type AsynqPublisher struct {
	client  Enqueuer
	jobs    Submitter
	routing Routing
}

func NewAsynqPublisher(client Enqueuer, jobs Submitter, routing Routing) *AsynqPublisher {
	return &AsynqPublisher{client: client, jobs: jobs, routing: routing}
}

var _ domain.EventPublisher = (*AsynqPublisher)(nil)

// MessageSent publishes the full message.
func (p *AsynqPublisher) MessageSent(m *domain.Message) {
	p.publish(p.routing.MessageSent, m)
}

// MessageRead publishes the read transition of a message.
func (p *AsynqPublisher) MessageRead(m *domain.Message) {
	p.publish(p.routing.MessageRead, MessageReadEvent{
		MessageID:      m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		ReadAt:         m.ReadAt,
	})
}

func (p *AsynqPublisher) publish(taskType string, event any) {
	// Serialized now so later mutations of the event cannot leak in.
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("events: marshal %s: %v", taskType, err)
		return
	}
	p.jobs.Submit("publish "+taskType, func(ctx context.Context) error {
		var opts []asynq.Option
		if p.routing.Queue != "" {
			opts = append(opts, asynq.Queue(p.routing.Queue))
		}
		info, err := p.client.EnqueueContext(ctx, asynq.NewTask(taskType, payload), opts...)
		if err != nil {
			return fmt.Errorf("enqueue %s: %w", taskType, err)
		}
		log.Printf("events: published %s as task %s", taskType, info.ID)
		return nil
	})
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) MessageSent(*domain.Message) {}
func (Nop) MessageRead(*domain.Message) {}
