package implementation

import (
	"context"

	"nexus-chat-be/internal/mapper"
	"nexus-chat-be/internal/model"
	"nexus-chat-be/internal/repository/contract"
	"nexus-chat-be/internal/repository/specification"
	"nexus-chat-be/pkg/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatMessageRepository(db *gorm.DB) contract.ChatMessageRepository {
	return &ChatMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatMessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatMessageRepositoryImpl) ReplaceForSession(ctx context.Context, sessionId uuid.UUID, messages []store.Message) error {
	if len(messages) == 0 {
		return nil
	}

	rows := make([]*model.ChatMessage, 0, len(messages))
	for i, msg := range messages {
		row, err := r.mapper.MessageToModel(sessionId, i, msg)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&rows).Error
}

func (r *ChatMessageRepositoryImpl) FindAllBySession(ctx context.Context, sessionId uuid.UUID) ([]store.Message, error) {
	var rows []*model.ChatMessage
	query := r.applySpecifications(
		r.db.WithContext(ctx),
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderByPosition{},
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	messages := make([]store.Message, 0, len(rows))
	for _, row := range rows {
		msg, err := r.mapper.MessageToStore(row)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (r *ChatMessageRepositoryImpl) DeleteAllBySessionUnscoped(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Where("chat_session_id = ?", sessionId).Delete(&model.ChatMessage{}).Error
}

func (r *ChatMessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChatMessage{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
