package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"auroracast/internal/aurora"
	"auroracast/internal/logging"
	"auroracast/internal/oracle"
)

// chatRegistry tracks live chat sessions by id. The provider holds the
// real conversational state; the registry keeps a transcript mirror so
// clients can re-fetch what was said.
type chatRegistry struct {
	cap oracle.Capability

	mu       sync.RWMutex
	sessions map[string]*chatSession
}

type chatSession struct {
	id        string
	createdAt time.Time
	session   oracle.ChatSession

	// mu serializes sends and guards the transcript. Sends for one
	// session must land at the provider in submission order.
	mu         sync.Mutex
	transcript []aurora.ChatMessage
}

func newChatRegistry(capability oracle.Capability) *chatRegistry {
	return &chatRegistry{
		cap:      capability,
		sessions: make(map[string]*chatSession),
	}
}

func (r *chatRegistry) Create(ctx context.Context) (*chatSession, error) {
	session, err := r.cap.NewChat(ctx)
	if err != nil {
		return nil, err
	}

	cs := &chatSession{
		id:        uuid.NewString(),
		createdAt: time.Now(),
		session:   session,
	}

	r.mu.Lock()
	r.sessions[cs.id] = cs
	r.mu.Unlock()

	logging.Chat("registry: session %s created", cs.id)
	return cs, nil
}

func (r *chatRegistry) Get(id string) (*chatSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cs, ok := r.sessions[id]
	return cs, ok
}

func (r *chatRegistry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	logging.Chat("registry: session %s deleted", id)
	return true
}

// Send forwards one message and mirrors the exchange into the transcript.
// A failed turn records nothing; the session stays usable for the next
// attempt.
func (cs *chatSession) Send(ctx context.Context, message string) (string, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	reply, err := cs.session.Send(ctx, message)
	if err != nil {
		return "", err
	}

	now := time.Now()
	cs.transcript = append(cs.transcript,
		aurora.ChatMessage{Role: aurora.RoleUser, Text: message, At: now},
		aurora.ChatMessage{Role: aurora.RoleModel, Text: reply, At: now},
	)
	return reply, nil
}

// Transcript returns a copy of the mirrored exchange so far.
func (cs *chatSession) Transcript() []aurora.ChatMessage {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make([]aurora.ChatMessage, len(cs.transcript))
	copy(out, cs.transcript)
	return out
}
