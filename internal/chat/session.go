// Package chat implements the conversational session protocol used by
// the per-post websocket endpoint.
package chat

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/inkwell-labs/postmind/internal/domain"
)

// Frame types exchanged over a session.
const (
	FrameConnected = "connected"
	FrameAnswer    = "answer"
	FrameError     = "error"
)

// GreetingMessage opens every session.
const GreetingMessage = "Connected to AI assistant with RAG. Ask anything!"

// Conn is the transport a session speaks over. *websocket.Conn from
// gorilla satisfies it directly.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// Answerer resolves a free-text question about a post into a reply.
type Answerer interface {
	Dispatch(ctx context.Context, question string, post *domain.Post) string
}

// QuestionFrame is the single inbound frame shape.
type QuestionFrame struct {
	Question string `json:"question"`
}

// Frame is the outbound frame shape. Fields are omitted when empty, so
// the same struct serves all three frame types. Connected and error
// frames carry their text under the message key.
type Frame struct {
	Type     string `json:"type"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Session binds one connection to one post for its whole lifetime.
type Session struct {
	conn      Conn
	answerer  Answerer
	post      *domain.Post
	closeOnce sync.Once
}

// NewSession creates a session for an already-authorized post.
func NewSession(conn Conn, answerer Answerer, post *domain.Post) *Session {
	return &Session{
		conn:     conn,
		answerer: answerer,
		post:     post,
	}
}

// Run greets the client and serves questions until the connection
// drops or ctx is cancelled. A panic while answering is contained to
// that one question: it is logged and reported as an error frame, and
// the session keeps reading.
func (s *Session) Run(ctx context.Context) {
	defer s.Close()

	if !s.send(Frame{Type: FrameConnected, Message: GreetingMessage}) {
		return
	}

	for {
		if ctx.Err() != nil {
			return
		}

		var in QuestionFrame
		if err := s.conn.ReadJSON(&in); err != nil {
			// Client disconnects land here. Malformed JSON does too;
			// gorilla tears the connection down either way.
			return
		}

		question := strings.TrimSpace(in.Question)
		if question == "" {
			if !s.send(Frame{Type: FrameError, Message: "Question cannot be empty."}) {
				return
			}
			continue
		}

		answer, ok := s.dispatch(ctx, question)
		if !ok {
			if !s.send(Frame{Type: FrameError, Message: "Internal error."}) {
				return
			}
			continue
		}
		if !s.send(Frame{Type: FrameAnswer, Question: in.Question, Answer: answer}) {
			return
		}
	}
}

// dispatch resolves one question, containing any panic so a dispatch
// failure never tears the channel down.
func (s *Session) dispatch(ctx context.Context, question string) (answer string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("chat: dispatch for post %s panicked: %v", s.post.ID, r)
			ok = false
		}
	}()
	return s.answerer.Dispatch(ctx, question, s.post), true
}

// Close shuts the connection down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if err := s.conn.Close(); err != nil {
			log.Printf("chat: closing session for post %s: %v", s.post.ID, err)
		}
	})
}

func (s *Session) send(f Frame) bool {
	if err := s.conn.WriteJSON(f); err != nil {
		log.Printf("chat: write to session for post %s failed: %v", s.post.ID, err)
		return false
	}
	return true
}
