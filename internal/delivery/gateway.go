package delivery

import (
	"context"
	"fmt"

	"messaging_go/internal/domain"
)

// SessionRegistry delivers a payload to the live sessions of a user and
// reports how many sessions received it.
type SessionRegistry interface {
	Deliver(userID int64, channel string, payload any) (int, error)
}

// Gateway implements domain.Notifier on top of a SessionRegistry.
type Gateway struct {
	dispatcher *Dispatcher
	sessions   SessionRegistry
}

func NewGateway(dispatcher *Dispatcher, sessions SessionRegistry) *Gateway {
	return &Gateway{dispatcher: dispatcher, sessions: sessions}
}

var _ domain.Notifier = (*Gateway)(nil)

// NotifyUser queues delivery and returns immediately. Notifications for one
// user keep their order. A user without live sessions is not an error.
func (g *Gateway) NotifyUser(userID int64, channel string, payload any) {
	g.dispatcher.SubmitFor(userID, fmt.Sprintf("notify %s user %d", channel, userID), func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := g.sessions.Deliver(userID, channel, payload)
		return err
	})
}
