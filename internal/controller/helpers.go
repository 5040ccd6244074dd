package controller

import (
	"errors"

	"nexus-chat-be/internal/pkg/serverutils"
	"nexus-chat-be/internal/repository/memory"
	"nexus-chat-be/internal/service"
	"nexus-chat-be/pkg/gemini"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// mapError attaches the right HTTP status to known domain errors so the
// error middleware does not fall through to 500.
func mapError(err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrProfileNotFound):
		return serverutils.NewApiError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, memory.ErrTurnInFlight),
		errors.Is(err, service.ErrEmailTaken):
		return serverutils.NewApiError(fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return serverutils.NewApiError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, gemini.ErrInvalidAspectRatio),
		errors.Is(err, gemini.ErrInvalidVoice):
		return serverutils.NewApiError(fiber.StatusBadRequest, err.Error())
	default:
		return err
	}
}

func currentUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	return serverutils.UserIdFromCtx(ctx)
}

func paramUUID(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, serverutils.NewApiError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
