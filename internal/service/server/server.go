package server

import (
	"context"
	"net/http"

	"e2e_relay/internal/config"
	"e2e_relay/internal/model"
	"e2e_relay/internal/service/registry"
	"e2e_relay/internal/service/relay"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type (
	UserStore interface {
		GetByName(ctx context.Context, name string) (*model.User, error)
		Create(ctx context.Context, user *model.User) (primitive.ObjectID, error)
	}

	HistoryStore interface {
		ListBetween(ctx context.Context, a, b string, limit int64) ([]*model.Message, error)
	}

	BlockStore interface {
		Block(ctx context.Context, blockerID, blockedID string) error
		Unblock(ctx context.Context, blockerID, blockedID string) error
	}

	ConversationStore interface {
		ListForUser(ctx context.Context, userID string) ([]*model.Conversation, error)
	}

	Authenticator interface {
		Issue(ctx context.Context, userID string) (string, error)
		Validate(ctx context.Context, token string) (string, error)
	}

	Deps struct {
		Registry      *registry.Registry
		Dispatcher    *relay.Dispatcher
		Users         UserStore
		History       HistoryStore
		Blocks        BlockStore
		Conversations ConversationStore
		Auth          Authenticator
	}

	HttpServer struct {
		cfg      *config.Config
		deps     Deps
		upgrader websocket.Upgrader
	}
)

func NewHttpServer(cfg *config.Config, deps Deps) *HttpServer {
	return &HttpServer{
		cfg:  cfg,
		deps: deps,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
	}
}

func (s *HttpServer) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/signup", s.HandleSignup()).Methods(http.MethodPost)
	r.HandleFunc("/login", s.HandleLogin()).Methods(http.MethodPost)
	r.HandleFunc("/keys/{name}", s.HandleGetPublicKey()).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.HandleInitWS()).Methods(http.MethodGet)
	r.HandleFunc("/history/{name}", s.HandleHistory()).Methods(http.MethodGet)
	r.HandleFunc("/conversations", s.HandleConversations()).Methods(http.MethodGet)
	r.HandleFunc("/block/{name}", s.HandleBlock()).Methods(http.MethodPost)
	r.HandleFunc("/unblock/{name}", s.HandleUnblock()).Methods(http.MethodPost)

	return r
}

func (s *HttpServer) Run() error {
	return http.ListenAndServe(s.cfg.Server.ListenAddr, s.Router())
}
