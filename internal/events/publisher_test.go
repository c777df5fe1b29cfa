package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging_go/internal/domain"
)

type enqueued struct {
	taskType string
	payload  []byte
	queue    string
}

type fakeClient struct {
	tasks []enqueued
	err   error
}

func (c *fakeClient) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	e := enqueued{taskType: task.Type(), payload: task.Payload()}
	for _, o := range opts {
		if o.Type() == asynq.QueueOpt {
			e.queue = o.Value().(string)
		}
	}
	c.tasks = append(c.tasks, e)
	return &asynq.TaskInfo{ID: "task-1", Queue: e.queue, Type: e.taskType}, nil
}

// inlineJobs runs submitted jobs synchronously.
type inlineJobs struct {
	errs []error
}

func (j *inlineJobs) Submit(_ string, fn func(ctx context.Context) error) bool {
	if err := fn(context.Background()); err != nil {
		j.errs = append(j.errs, err)
	}
	return true
}

var routing = Routing{Queue: "messaging.exchange", MessageSent: "message.sent", MessageRead: "message.read"}

func TestAsynqPublisher_MessageSent(t *testing.T) {
	client := &fakeClient{}
	p := NewAsynqPublisher(client, &inlineJobs{}, routing)

	msg := &domain.Message{ID: 1, ConversationID: 9, SenderID: 100, ReceiverID: 200, Content: "hi", SentAt: time.Now().UTC()}
	p.MessageSent(msg)

	require.Len(t, client.tasks, 1)
	assert.Equal(t, "message.sent", client.tasks[0].taskType)
	assert.Equal(t, "messaging.exchange", client.tasks[0].queue)

	var got domain.Message
	require.NoError(t, json.Unmarshal(client.tasks[0].payload, &got))
	assert.Equal(t, "hi", got.Content)
	assert.EqualValues(t, 200, got.ReceiverID)
}

func TestAsynqPublisher_MessageRead(t *testing.T) {
	client := &fakeClient{}
	p := NewAsynqPublisher(client, &inlineJobs{}, routing)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p.MessageRead(&domain.Message{ID: 7, ConversationID: 9, SenderID: 100, ReceiverID: 200, IsRead: true, ReadAt: &at})

	require.Len(t, client.tasks, 1)
	assert.Equal(t, "message.read", client.tasks[0].taskType)
	var ev MessageReadEvent
	require.NoError(t, json.Unmarshal(client.tasks[0].payload, &ev))
	assert.EqualValues(t, 7, ev.MessageID)
	require.NotNil(t, ev.ReadAt)
	assert.True(t, at.Equal(*ev.ReadAt))
}

func TestAsynqPublisher_EnqueueFailureIsReportedToJobRunner(t *testing.T) {
	client := &fakeClient{err: errors.New("redis down")}
	jobs := &inlineJobs{}
	p := NewAsynqPublisher(client, jobs, routing)

	p.MessageSent(&domain.Message{ID: 1})
	require.Len(t, jobs.errs, 1)
	assert.Contains(t, jobs.errs[0].Error(), "redis down")
}
