package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"messaging_go/internal/config"
	"messaging_go/internal/domain"
	"messaging_go/internal/ws"

	_ "messaging_go/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Engine is the messaging engine as seen by the REST and ws surfaces.
type Engine interface {
	SendMessage(ctx context.Context, senderID, receiverID int64, content string) (*domain.Message, error)
	GetConversationSummaries(ctx context.Context, userID int64) ([]*domain.ConversationSummary, error)
	CreateOrGetConversation(ctx context.Context, senderID, receiverID int64) (*domain.ConversationSummary, error)
	GetConversationDetails(ctx context.Context, conversationID, requestingUserID int64) (*domain.ConversationDetail, error)
	MarkMessageAsRead(ctx context.Context, messageID, requestingUserID int64) (*domain.Message, error)
	GetMessageByID(ctx context.Context, messageID int64) (*domain.Message, error)
	NotifyTyping(ctx context.Context, senderID int64, displayName string, receiverID int64) error
	ListContacts(ctx context.Context, userID int64) ([]*domain.Profile, error)
}

// NewRouter constructs the main HTTP router and wires routes and middleware.
func NewRouter(cfg *config.Config, engine Engine, auth Authenticator, hub *ws.Hub) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": cfg.AppName + " API",
			"version": "1.0.0",
			"docs":    "/docs",
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(AuthMiddleware(auth, cfg.TrustUserHeader))

		r.Route("/messages", func(r chi.Router) {
			r.Post("/", handleSendMessage(engine))
			r.Get("/{messageID}", handleGetMessage(engine))
			r.Patch("/{messageID}/read", handleMarkMessageRead(engine))
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", handleCreateOrGetConversation(engine))
			r.Get("/{conversationID}", handleGetConversation(engine))
		})

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/conversations", handleListConversations(engine))
			r.Get("/contacts", handleListContacts(engine))
		})
	})

	// WebSocket endpoint; authenticates during the handshake.
	r.Get("/ws", ws.MakeHandler(hub, auth, engine, cfg.WSAllowedOrigins))

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps a domain error to its HTTP status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		logForbidden(r, err)
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		log.Printf("httpserver: %s %s: %v", r.Method, r.URL.Path, err)
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, status, map[string]string{"error": "upstream unavailable"})
	default:
		log.Printf("httpserver: %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func logForbidden(r *http.Request, err error) {
	caller := int64(0)
	if id := CurrentIdentity(r); id != nil {
		caller = id.UserID
	}
	log.Printf("security: forbidden %s %s by user %d (request %s): %v",
		r.Method, r.URL.Path, caller, middleware.GetReqID(r.Context()), err)
}

// pathID parses a positive int64 URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}
