package service

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/repository/specification"
	"nexus-chat-be/internal/repository/unitofwork"
	"nexus-chat-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// flushDelay coalesces the dirty events a streaming turn produces so a
// hundred chunks cost one write, not a hundred.
const flushDelay = 250 * time.Millisecond

type IConsumerService interface {
	// Rehydrate loads every persisted session into the store. Called once
	// before the server accepts traffic.
	Rehydrate(ctx context.Context) error
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	store      *store.Store

	mu      sync.Mutex
	pending map[uuid.UUID]*time.Timer
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	st *store.Store,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		store:      st,
		pending:    make(map[uuid.UUID]*time.Timer),
	}
}

func (cs *consumerService) Rehydrate(ctx context.Context) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx, specification.OrderByCreatedAtDesc{})
	if err != nil {
		return err
	}

	for _, session := range sessions {
		messages, err := uow.ChatMessageRepository().FindAllBySession(ctx, session.Id)
		if err != nil {
			return err
		}
		// A crash mid-turn leaves the placeholder marked streaming. Settle
		// it so the UI does not wait on a stream that no longer exists.
		for i := range messages {
			messages[i].IsStreaming = false
		}
		session.Messages = messages
	}

	cs.store.Rehydrate(sessions)
	log.Printf("[INFO] Rehydrated %d chat sessions", len(sessions))
	return nil
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishSessionEventMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal session event: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	// The store is the source of truth; the event only says which session
	// to look at. Acking before the flush loses at most flushDelay of
	// history on a crash, which write-behind accepts by definition.
	msg.Ack()

	switch store.EventKind(payload.Kind) {
	case store.EventDirty:
		cs.scheduleFlush(ctx, payload.SessionId)
	case store.EventFlush, store.EventDeleted:
		cs.cancelPending(payload.SessionId)
		cs.flush(ctx, payload.SessionId)
	default:
		log.Printf("[WARN] Unknown session event kind: %s", payload.Kind)
	}
}

// scheduleFlush arms a one-shot timer for the session. Dirty events landing
// while a timer is armed are coalesced into the pending flush.
func (cs *consumerService) scheduleFlush(ctx context.Context, sessionId uuid.UUID) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, armed := cs.pending[sessionId]; armed {
		return
	}
	cs.pending[sessionId] = time.AfterFunc(flushDelay, func() {
		cs.mu.Lock()
		delete(cs.pending, sessionId)
		cs.mu.Unlock()
		cs.flush(ctx, sessionId)
	})
}

func (cs *consumerService) cancelPending(sessionId uuid.UUID) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if t, armed := cs.pending[sessionId]; armed {
		t.Stop()
		delete(cs.pending, sessionId)
	}
}

// flush writes the session's current snapshot, or removes its rows when the
// session is gone from the store.
func (cs *consumerService) flush(ctx context.Context, sessionId uuid.UUID) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, ok := cs.store.Get(sessionId)

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		return
	}
	defer uow.Rollback()

	if !ok {
		if err := uow.ChatMessageRepository().DeleteAllBySessionUnscoped(ctx, sessionId); err != nil {
			log.Printf("[ERROR] Failed to delete messages for session %s: %v", sessionId, err)
			return
		}
		if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
			log.Printf("[ERROR] Failed to delete session %s: %v", sessionId, err)
			return
		}
	} else {
		if err := uow.ChatSessionRepository().Save(ctx, session); err != nil {
			log.Printf("[ERROR] Failed to save session %s: %v", sessionId, err)
			return
		}
		if err := uow.ChatMessageRepository().ReplaceForSession(ctx, sessionId, session.Messages); err != nil {
			log.Printf("[ERROR] Failed to save messages for session %s: %v", sessionId, err)
			return
		}
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit flush for session %s: %v", sessionId, err)
	}
}
