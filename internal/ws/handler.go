package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"messaging_go/internal/directory"
	"messaging_go/internal/domain"
)

// Inbound event types.
const (
	EventSend   = "chat.send"
	EventRead   = "chat.read"
	EventTyping = "chat.typing"

	channelErrors = "errors"
	eventTimeout  = 15 * time.Second
)

// Engine is the subset of the messaging engine driven from ws events.
type Engine interface {
	SendMessage(ctx context.Context, senderID, receiverID int64, content string) (*domain.Message, error)
	MarkMessageAsRead(ctx context.Context, messageID, requestingUserID int64) (*domain.Message, error)
	NotifyTyping(ctx context.Context, senderID int64, displayName string, receiverID int64) error
}

// Authenticator resolves a bearer token to a caller identity.
type Authenticator interface {
	Identify(token string) (*domain.Identity, error)
}

type inboundEvent struct {
	Type       string `json:"type"`
	ReceiverID int64  `json:"receiver_id"`
	MessageID  int64  `json:"message_id"`
	Content    string `json:"content"`
}

type errorFrame struct {
	Event string `json:"event,omitempty"`
	Error string `json:"error"`
}

type wsAuthError struct {
	status int
	msg    string
}

func (e wsAuthError) Error() string {
	return e.msg
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimRight(strings.TrimSpace(strings.ToLower(origin)), "/")
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

// makeCheckOrigin accepts listed origins only; "*" accepts any browser origin.
func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}
	_, allowAll := allowed["*"]

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if allowAll {
			return true
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

// extractTokenFromWSRequest reads the token from the query string, the
// Authorization header, or a "bearer, <token>" subprotocol pair.
func extractTokenFromWSRequest(r *http.Request) (string, error) {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token, nil
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		token := strings.TrimSpace(authHeader[len("Bearer "):])
		if token != "" {
			return token, nil
		}
	}

	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") {
			token := parts[1]
			if token != "" {
				return token, nil
			}
		}
	}

	return "", wsAuthError{status: http.StatusUnauthorized, msg: "missing bearer token"}
}

// MakeHandler returns an HTTP handler for the /ws endpoint. The handshake
// binds the token's identity to the connection, then inbound events are
// dispatched to the engine:
//   - chat.send   {receiver_id, content} -> SendMessage
//   - chat.read   {message_id}           -> MarkMessageAsRead
//   - chat.typing {receiver_id}          -> NotifyTyping
//
// Failures are answered on the "errors" channel of the same connection.
func MakeHandler(
	hub *Hub,
	auth Authenticator,
	engine Engine,
	allowedOrigins []string,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
		Subprotocols: []string{
			"bearer",
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		tokenStr, err := extractTokenFromWSRequest(r)
		if err != nil {
			var authErr wsAuthError
			if errors.As(err, &authErr) {
				http.Error(w, authErr.msg, authErr.status)
				return
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		identity, err := auth.Identify(tokenStr)
		if err != nil {
			log.Printf("security: ws handshake rejected from %s: %v", r.RemoteAddr, err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		client := newClient(identity.UserID, identity.Username, conn)
		hub.Register(client)
		go client.writeLoop()
		log.Printf("ws: user %d connected (session %s)", client.UserID, client.ID)
		defer func() {
			hub.Unregister(client)
			client.Close(websocket.CloseNormalClosure, "")
			log.Printf("ws: user %d disconnected (session %s)", client.UserID, client.ID)
		}()

		conn.SetReadLimit(maxInboundSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		// Engine calls outlive the upgrade request, so they get their own
		// context carrying the caller's token for directory lookups.
		base := directory.WithToken(context.Background(), tokenStr)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("ws: read from user %d: %v", client.UserID, err)
				}
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))

			var ev inboundEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				sendError(client, "", "malformed event")
				continue
			}
			handleEvent(base, client, engine, ev)
		}
	}
}

func handleEvent(base context.Context, c *Client, engine Engine, ev inboundEvent) {
	ctx, cancel := context.WithTimeout(base, eventTimeout)
	defer cancel()

	var err error
	switch ev.Type {
	case EventSend:
		_, err = engine.SendMessage(ctx, c.UserID, ev.ReceiverID, ev.Content)
	case EventRead:
		_, err = engine.MarkMessageAsRead(ctx, ev.MessageID, c.UserID)
	case EventTyping:
		err = engine.NotifyTyping(ctx, c.UserID, c.Username, ev.ReceiverID)
	default:
		sendError(c, ev.Type, "unknown event type")
		return
	}
	if err == nil {
		return
	}

	if errors.Is(err, domain.ErrForbidden) {
		log.Printf("security: user %d denied %s: %v", c.UserID, ev.Type, err)
	} else {
		log.Printf("ws: %s from user %d: %v", ev.Type, c.UserID, err)
	}
	sendError(c, ev.Type, clientMessage(err))
}

func clientMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return "not found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "upstream unavailable"
	default:
		return "internal error"
	}
}

func sendError(c *Client, event, msg string) {
	frame, err := json.Marshal(Envelope{Channel: channelErrors, Payload: errorFrame{Event: event, Error: msg}})
	if err != nil {
		return
	}
	_ = c.Send(frame)
}
