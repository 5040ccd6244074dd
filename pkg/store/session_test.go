package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMessage(role Role, text string) Message {
	return Message{
		Id:        uuid.New(),
		Role:      role,
		Content:   []MessagePart{{Text: text}},
		CreatedAt: time.Now(),
	}
}

func TestCreatePrependsWithDefaultTitle(t *testing.T) {
	s := New(nil)
	userId := uuid.New()

	first := s.Create(userId, "gemini-3-flash-preview")
	second := s.Create(userId, "gemini-3-pro-preview")

	assert.Equal(t, DefaultTitle, first.Title)
	assert.Empty(t, first.Messages)

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, second.Id, snap[0].Id, "newest session goes first")
	assert.Equal(t, first.Id, snap[1].Id)
}

func TestAppendUnknownSessionIsNoOp(t *testing.T) {
	var events []Event
	s := New(func(ev Event) { events = append(events, ev) })

	ok := s.Append(uuid.New(), newMessage(RoleUser, "hello"))

	assert.False(t, ok)
	assert.Empty(t, events)
}

func TestSnapshotIsolation(t *testing.T) {
	s := New(nil)
	session := s.Create(uuid.New(), "gemini-3-flash-preview")

	msg := newMessage(RoleModel, "draft")
	msg.IsStreaming = true
	s.Append(session.Id, msg)

	before, ok := s.Get(session.Id)
	require.True(t, ok)

	s.PatchStreamingMessage(session.Id, msg.Id, Patch{
		Content: []MessagePart{{Text: "draft, longer now"}},
	})

	// The earlier snapshot must not see the patch.
	assert.Equal(t, "draft", before.Messages[0].Content[0].Text)

	after, _ := s.Get(session.Id)
	assert.Equal(t, "draft, longer now", after.Messages[0].Content[0].Text)
}

func TestPatchSemantics(t *testing.T) {
	s := New(nil)
	session := s.Create(uuid.New(), "gemini-3-flash-preview")

	msg := newMessage(RoleModel, "")
	msg.IsStreaming = true
	s.Append(session.Id, msg)

	sources := []GroundingSource{{Title: "Example", URI: "https://example.com"}}
	ok := s.PatchStreamingMessage(session.Id, msg.Id, Patch{
		Content: []MessagePart{{Text: "partial"}},
		Sources: sources,
	})
	require.True(t, ok)

	// Nil fields leave prior values untouched.
	ok = s.PatchStreamingMessage(session.Id, msg.Id, Patch{
		Content: []MessagePart{{Text: "partial, more"}},
	})
	require.True(t, ok)

	got, _ := s.Get(session.Id)
	assert.Equal(t, "partial, more", got.Messages[0].Content[0].Text)
	assert.Equal(t, sources, got.Messages[0].Sources)

	audio := "UEND"
	s.PatchStreamingMessage(session.Id, msg.Id, Patch{AudioData: &audio})
	got, _ = s.Get(session.Id)
	assert.Equal(t, audio, got.Messages[0].AudioData)
	assert.Equal(t, "partial, more", got.Messages[0].Content[0].Text)
}

func TestPatchUnknownMessage(t *testing.T) {
	s := New(nil)
	session := s.Create(uuid.New(), "gemini-3-flash-preview")

	ok := s.PatchStreamingMessage(session.Id, uuid.New(), Patch{
		Content: []MessagePart{{Text: "nope"}},
	})
	assert.False(t, ok)
}

func TestFinalizeHappensOnce(t *testing.T) {
	var events []Event
	s := New(func(ev Event) { events = append(events, ev) })
	session := s.Create(uuid.New(), "gemini-3-flash-preview")

	msg := newMessage(RoleModel, "done")
	msg.IsStreaming = true
	s.Append(session.Id, msg)

	assert.True(t, s.Finalize(session.Id, msg.Id))
	assert.False(t, s.Finalize(session.Id, msg.Id), "second finalize is a no-op")

	got, _ := s.Get(session.Id)
	assert.False(t, got.Messages[0].IsStreaming)

	var flushes int
	for _, ev := range events {
		if ev.Kind == EventFlush {
			flushes++
		}
	}
	// One flush from Create, one from the single successful Finalize.
	assert.Equal(t, 2, flushes)
}

func TestDeleteEmitsDeletedEvent(t *testing.T) {
	var events []Event
	s := New(func(ev Event) { events = append(events, ev) })
	session := s.Create(uuid.New(), "gemini-3-flash-preview")

	assert.True(t, s.Delete(session.Id))
	assert.False(t, s.Delete(session.Id))

	_, ok := s.Get(session.Id)
	assert.False(t, ok)

	last := events[len(events)-1]
	assert.Equal(t, EventDeleted, last.Kind)
	assert.Equal(t, session.Id, last.SessionId)
}

func TestSnapshotForUser(t *testing.T) {
	s := New(nil)
	alice := uuid.New()
	bob := uuid.New()

	s.Create(alice, "gemini-3-flash-preview")
	s.Create(bob, "gemini-3-flash-preview")
	s.Create(alice, "gemini-3-pro-preview")

	got := s.SnapshotForUser(alice)
	require.Len(t, got, 2)
	for _, session := range got {
		assert.Equal(t, alice, session.UserId)
	}
}

func TestRehydrateReplacesCollection(t *testing.T) {
	s := New(nil)
	s.Create(uuid.New(), "gemini-3-flash-preview")

	restored := []*Session{
		{Id: uuid.New(), UserId: uuid.New(), Title: "Restored", Model: "gemini-3-pro-preview", CreatedAt: time.Now()},
	}
	s.Rehydrate(restored)

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "Restored", snap[0].Title)
}
