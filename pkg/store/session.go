package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role tags who authored a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// InlineData carries a raw binary payload (image or audio) plus its MIME type.
type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

// MessagePart is either plain text or inline binary data. A message may hold
// both (e.g. an image plus a caption).
type MessagePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// GroundingSource is a citation (title + URI) attached to a web-grounded reply.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Message is one turn entry. Content parts are fixed at creation for user
// messages and replaced wholesale on each chunk for the streaming model
// message. IsStreaming transitions true -> false exactly once.
type Message struct {
	Id          uuid.UUID         `json:"id"`
	Role        Role              `json:"role"`
	Content     []MessagePart     `json:"content"`
	CreatedAt   time.Time         `json:"created_at"`
	IsStreaming bool              `json:"is_streaming,omitempty"`
	Sources     []GroundingSource `json:"sources,omitempty"`
	AudioData   string            `json:"audio_data,omitempty"` // base64 PCM, lazily populated
}

// Session is an ordered, append-only message list. The only in-place mutation
// is the patch of the currently streaming message.
type Session struct {
	Id        uuid.UUID `json:"id"`
	UserId    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultTitle is the title a session carries until the first user message
// names it.
const DefaultTitle = "New Conversation"

// EventKind classifies store mutations for the persistence listener.
type EventKind string

const (
	EventDirty   EventKind = "dirty"   // state changed, flush may be debounced
	EventFlush   EventKind = "flush"   // state changed, flush now
	EventDeleted EventKind = "deleted" // session removed
)

// Event notifies the persistence layer about a mutated session.
type Event struct {
	Kind      EventKind
	SessionId uuid.UUID
}

// Patch describes a partial update of the streaming message. Nil fields are
// left untouched.
type Patch struct {
	Content   []MessagePart
	Sources   []GroundingSource
	AudioData *string
}

// Store holds the ordered session collection. Every mutation is copy-on-write:
// a new top-level slice and a fresh copy of the touched session are built, so
// a snapshot handed out earlier is never corrupted by later patches. Writers
// are serialized by the mutex; readers only ever see complete states.
type Store struct {
	mu       sync.RWMutex
	sessions []*Session
	notify   func(Event)
}

// New creates an empty store. notify may be nil; when set it is invoked after
// every successful mutation. It runs under the write lock, so listeners must
// not call back into the store.
func New(notify func(Event)) *Store {
	if notify == nil {
		notify = func(Event) {}
	}
	return &Store{notify: notify}
}

// Rehydrate replaces the whole collection. Used once at startup with the rows
// loaded from the durable store.
func (s *Store) Rehydrate(sessions []*Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = sessions
}

// Create prepends a new empty session and returns a snapshot of it.
func (s *Store) Create(userId uuid.UUID, model string) *Session {
	session := &Session{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     DefaultTitle,
		Model:     model,
		Messages:  []Message{},
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]*Session, 0, len(s.sessions)+1)
	next = append(next, session)
	next = append(next, s.sessions...)
	s.sessions = next

	s.notify(Event{Kind: EventFlush, SessionId: session.Id})
	return session
}

// Append adds a message to the session. Unknown sessions are a silent no-op.
// Returns true when the message was appended.
func (s *Store) Append(sessionId uuid.UUID, msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(sessionId)
	if idx < 0 {
		return false
	}

	session := cloneSession(s.sessions[idx])
	session.Messages = append(session.Messages, msg)
	s.replace(idx, session)

	s.notify(Event{Kind: EventDirty, SessionId: sessionId})
	return true
}

// PatchStreamingMessage replaces content/sources/audio of the matching message,
// leaving all other messages untouched. No-ops when session or message is
// unknown.
func (s *Store) PatchStreamingMessage(sessionId, messageId uuid.UUID, patch Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(sessionId)
	if idx < 0 {
		return false
	}

	session := cloneSession(s.sessions[idx])
	patched := false
	for i := range session.Messages {
		if session.Messages[i].Id != messageId {
			continue
		}
		if patch.Content != nil {
			session.Messages[i].Content = patch.Content
		}
		if patch.Sources != nil {
			session.Messages[i].Sources = patch.Sources
		}
		if patch.AudioData != nil {
			session.Messages[i].AudioData = *patch.AudioData
		}
		patched = true
		break
	}
	if !patched {
		return false
	}
	s.replace(idx, session)

	s.notify(Event{Kind: EventDirty, SessionId: sessionId})
	return true
}

// Finalize clears the streaming flag of the matching message. The transition
// happens at most once; finalizing an already final message is a no-op.
func (s *Store) Finalize(sessionId, messageId uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(sessionId)
	if idx < 0 {
		return false
	}

	session := cloneSession(s.sessions[idx])
	finalized := false
	for i := range session.Messages {
		if session.Messages[i].Id == messageId && session.Messages[i].IsStreaming {
			session.Messages[i].IsStreaming = false
			finalized = true
			break
		}
	}
	if !finalized {
		return false
	}
	s.replace(idx, session)

	s.notify(Event{Kind: EventFlush, SessionId: sessionId})
	return true
}

// SetTitle renames the session.
func (s *Store) SetTitle(sessionId uuid.UUID, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(sessionId)
	if idx < 0 {
		return false
	}

	session := cloneSession(s.sessions[idx])
	session.Title = title
	s.replace(idx, session)

	s.notify(Event{Kind: EventDirty, SessionId: sessionId})
	return true
}

// Delete removes the session from the collection.
func (s *Store) Delete(sessionId uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(sessionId)
	if idx < 0 {
		return false
	}

	next := make([]*Session, 0, len(s.sessions)-1)
	next = append(next, s.sessions[:idx]...)
	next = append(next, s.sessions[idx+1:]...)
	s.sessions = next

	s.notify(Event{Kind: EventDeleted, SessionId: sessionId})
	return true
}

// Get returns the current snapshot of one session. The returned session must
// be treated as immutable.
func (s *Store) Get(sessionId uuid.UUID) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(sessionId)
	if idx < 0 {
		return nil, false
	}
	return s.sessions[idx], true
}

// Snapshot returns the current session collection, newest first. The slice and
// the sessions it points to must be treated as immutable.
func (s *Store) Snapshot() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions
}

// SnapshotForUser filters the snapshot by owner.
func (s *Store) SnapshotForUser(userId uuid.UUID) []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Session
	for _, session := range s.sessions {
		if session.UserId == userId {
			out = append(out, session)
		}
	}
	return out
}

// indexOf must be called with the lock held.
func (s *Store) indexOf(sessionId uuid.UUID) int {
	for i, session := range s.sessions {
		if session.Id == sessionId {
			return i
		}
	}
	return -1
}

// replace swaps one session into a freshly built top-level slice. Must be
// called with the write lock held.
func (s *Store) replace(idx int, session *Session) {
	next := make([]*Session, len(s.sessions))
	copy(next, s.sessions)
	next[idx] = session
	s.sessions = next
}

func cloneSession(src *Session) *Session {
	dst := *src
	dst.Messages = make([]Message, len(src.Messages))
	copy(dst.Messages, src.Messages)
	return &dst
}
