package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/inkwell-labs/postmind/internal/api"
	"github.com/inkwell-labs/postmind/internal/chat"
	"github.com/inkwell-labs/postmind/internal/domain"
)

type PostService interface {
	GetPublicBySlug(ctx context.Context, slug string) (*domain.Post, error)
	Ask(ctx context.Context, slug, question string) (string, error)
	EnqueueAugmentation(ctx context.Context, slug string) ([]domain.AIJobKind, error)
}

type PostHandler struct {
	svc      PostService
	answerer chat.Answerer
	upgrader websocket.Upgrader
}

func NewPostHandler(svc PostService, answerer chat.Answerer) *PostHandler {
	return &PostHandler{
		svc:      svc,
		answerer: answerer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Posts are public; the chat surface carries no credentials.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Ask answers a single question about a post without holding a session.
func (h *PostHandler) Ask(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := h.svc.Ask(r.Context(), slug, req.Question)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, AskResponse{Question: req.Question, Answer: answer})
}

// Chat upgrades the connection to a websocket and runs a conversational
// session scoped to one post.
func (h *PostHandler) Chat(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post, err := h.svc.GetPublicBySlug(r.Context(), slug)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		log.Printf("chat: websocket upgrade for post %s failed: %v", post.ID, err)
		return
	}

	session := chat.NewSession(conn, h.answerer, post)
	session.Run(r.Context())
}

type AugmentResponse struct {
	Enqueued []domain.AIJobKind `json:"enqueued"`
}

// Augment schedules the background augmentation jobs for a post.
func (h *PostHandler) Augment(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	kinds, err := h.svc.EnqueueAugmentation(r.Context(), slug)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, AugmentResponse{Enqueued: kinds})
}
