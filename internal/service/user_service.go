package service

import (
	"context"
	"time"

	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/repository/specification"
	"nexus-chat-be/internal/repository/unitofwork"
	"nexus-chat-be/pkg/store"

	"github.com/google/uuid"
)

type IUserService interface {
	GetProfile(ctx context.Context, userId uuid.UUID) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	DeleteAccount(ctx context.Context, userId uuid.UUID) error
}

type userService struct {
	uowFactory unitofwork.RepositoryFactory
	store      *store.Store
	logger     logger.ILogger
}

func NewUserService(uowFactory unitofwork.RepositoryFactory, st *store.Store, log logger.ILogger) IUserService {
	return &userService{
		uowFactory: uowFactory,
		store:      st,
		logger:     log,
	}
}

func (s *userService) GetProfile(ctx context.Context, userId uuid.UUID) (*dto.ProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	profile, err := uow.UserProfileRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return toProfileResponse(profile), nil
}

func (s *userService) UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	profile, err := uow.UserProfileRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	profile.FullName = req.FullName
	profile.AvatarURL = req.AvatarURL
	profile.Bio = req.Bio
	now := time.Now()
	profile.UpdatedAt = &now

	if err := uow.UserProfileRepository().Update(ctx, profile); err != nil {
		return nil, err
	}
	return toProfileResponse(profile), nil
}

// DeleteAccount removes the profile, its sessions, and their rows. The store
// deletions fan out to the persistence consumer per session.
func (s *userService) DeleteAccount(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	profile, err := uow.UserProfileRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrProfileNotFound
	}

	for _, session := range s.store.SnapshotForUser(userId) {
		s.store.Delete(session.Id)
	}

	if err := uow.UserProfileRepository().Delete(ctx, userId); err != nil {
		return err
	}

	s.logger.Info("UserService", "Account deleted", map[string]interface{}{"user_id": userId})
	return nil
}
