package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"e2e_relay/internal/model"
	"e2e_relay/internal/utils/log"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type (
	signupRequest struct {
		Name      string `json:"name"`
		PublicKey []byte `json:"publicKey"`
	}

	signupResponse struct {
		ID string `json:"id"`
	}

	loginRequest struct {
		Name string `json:"name"`
	}

	loginResponse struct {
		Token string `json:"token"`
	}

	publicKeyResponse struct {
		Name      string `json:"name"`
		PublicKey []byte `json:"publicKey"`
	}
)

// HandleSignup creates an account with the client-published public key. The
// server stores the key verbatim; it never generates or validates key material.
func (s *HttpServer) HandleSignup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Name == "" || len(req.PublicKey) == 0 {
			http.Error(w, "name and publicKey are required", http.StatusBadRequest)
			return
		}

		ctx := r.Context()
		existing, err := s.deps.Users.GetByName(ctx, req.Name)
		if err != nil {
			log.Error("signup lookup failed", zap.Error(err))
			http.Error(w, "signup failed", http.StatusInternalServerError)
			return
		}
		if existing != nil {
			http.Error(w, "name already taken", http.StatusConflict)
			return
		}

		u := &model.User{
			Name:      req.Name,
			PublicKey: req.PublicKey,
		}
		id, err := s.deps.Users.Create(ctx, u)
		if err != nil {
			log.Error("signup create failed", zap.Error(err))
			http.Error(w, "signup failed", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, signupResponse{ID: id.Hex()})
	}
}

// HandleLogin issues a bearer token. Credential verification is the caller's
// upstream concern; this handler is the seam where it would sit.
func (s *HttpServer) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		ctx := r.Context()
		user, err := s.deps.Users.GetByName(ctx, req.Name)
		if err != nil {
			log.Error("login lookup failed", zap.Error(err))
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}
		if user == nil {
			http.Error(w, "unknown user", http.StatusUnauthorized)
			return
		}

		token, err := s.deps.Auth.Issue(ctx, user.Name)
		if err != nil {
			log.Error("issue token failed", zap.Error(err))
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{Token: token})
	}
}

func (s *HttpServer) HandleGetPublicKey() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		name := mux.Vars(r)["name"]

		user, err := s.deps.Users.GetByName(ctx, name)
		if err != nil {
			log.Error("get public key failed", zap.Error(err))
			http.Error(w, "get public key failed", http.StatusInternalServerError)
			return
		}
		if user == nil {
			http.Error(w, "user does not exist", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, publicKeyResponse{
			Name:      user.Name,
			PublicKey: user.PublicKey,
		})
	}
}

// HandleHistory returns the caller's message history with one peer, oldest
// first. This is the recovery path for messages that missed live delivery.
func (s *HttpServer) HandleHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := s.bearerUser(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		peer := mux.Vars(r)["name"]
		var limit int64
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, err = strconv.ParseInt(v, 10, 64)
			if err != nil || limit < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
		}

		msgs, err := s.deps.History.ListBetween(r.Context(), caller, peer, limit)
		if err != nil {
			log.Error("list history failed", zap.Error(err))
			http.Error(w, "list history failed", http.StatusInternalServerError)
			return
		}
		if msgs == nil {
			msgs = []*model.Message{}
		}

		writeJSON(w, http.StatusOK, msgs)
	}
}

func (s *HttpServer) HandleConversations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := s.bearerUser(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		convos, err := s.deps.Conversations.ListForUser(r.Context(), caller)
		if err != nil {
			log.Error("list conversations failed", zap.Error(err))
			http.Error(w, "list conversations failed", http.StatusInternalServerError)
			return
		}
		if convos == nil {
			convos = []*model.Conversation{}
		}

		writeJSON(w, http.StatusOK, convos)
	}
}

func (s *HttpServer) HandleBlock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := s.bearerUser(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		peer := mux.Vars(r)["name"]
		if peer == caller {
			http.Error(w, "cannot block yourself", http.StatusBadRequest)
			return
		}

		if err := s.deps.Blocks.Block(r.Context(), caller, peer); err != nil {
			log.Error("block failed", zap.Error(err))
			http.Error(w, "block failed", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *HttpServer) HandleUnblock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := s.bearerUser(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		peer := mux.Vars(r)["name"]
		if err := s.deps.Blocks.Unblock(r.Context(), caller, peer); err != nil {
			log.Error("unblock failed", zap.Error(err))
			http.Error(w, "unblock failed", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *HttpServer) bearerUser(r *http.Request) (string, error) {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, prefix) {
		return "", errors.New("missing bearer token")
	}
	return s.deps.Auth.Validate(r.Context(), strings.TrimPrefix(h, prefix))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("write response failed", zap.Error(err))
	}
}
