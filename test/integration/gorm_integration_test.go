package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"nexus-chat-be/internal/repository/unitofwork"
	"nexus-chat-be/pkg/database"
	"nexus-chat-be/pkg/store"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.ChatMessageRepository())
	assert.NotNil(t, uow.UserProfileRepository())

	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Session Repository", func(t *testing.T) {
		count, err := uow.ChatSessionRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Session count: %d", count)
	})

	t.Run("Check Message Repository", func(t *testing.T) {
		count, err := uow.ChatMessageRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Message count: %d", count)
	})
}

func TestSessionRoundTrip(t *testing.T) {
	_ = godotenv.Load("../../.env")

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(ctx)

	session := &store.Session{
		Id:        uuid.New(),
		UserId:    uuid.New(),
		Title:     "Integration round trip",
		Model:     "gemini-3-flash-preview",
		CreatedAt: time.Now(),
	}
	messages := []store.Message{
		{
			Id:        uuid.New(),
			Role:      store.RoleUser,
			Content:   []store.MessagePart{{Text: "Hello"}},
			CreatedAt: time.Now(),
		},
		{
			Id:        uuid.New(),
			Role:      store.RoleModel,
			Content:   []store.MessagePart{{Text: "Hi there"}},
			CreatedAt: time.Now(),
		},
	}

	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	require.NoError(t, uow.ChatSessionRepository().Save(ctx, session))
	require.NoError(t, uow.ChatMessageRepository().ReplaceForSession(ctx, session.Id, messages))
	require.NoError(t, uow.Commit())

	loaded, err := uow.ChatMessageRepository().FindAllBySession(ctx, session.Id)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Hello", loaded[0].Content[0].Text)
	assert.Equal(t, store.RoleModel, loaded[1].Role)

	// Cleanup
	cleanup := uowFactory.NewUnitOfWork(ctx)
	require.NoError(t, cleanup.Begin(ctx))
	_ = cleanup.ChatMessageRepository().DeleteAllBySessionUnscoped(ctx, session.Id)
	_ = cleanup.ChatSessionRepository().Delete(ctx, session.Id)
	require.NoError(t, cleanup.Commit())
}
