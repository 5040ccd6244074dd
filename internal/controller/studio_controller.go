package controller

import (
	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/pkg/serverutils"
	"nexus-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IStudioController interface {
	RegisterRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
}

type studioController struct {
	studioService service.IStudioService
}

func NewStudioController(studioService service.IStudioService) IStudioController {
	return &studioController{
		studioService: studioService,
	}
}

func (c *studioController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/studio/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("generate", c.Generate)
}

func (c *studioController) Generate(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.GenerateImageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.studioService.GenerateImage(ctx.Context(), userId, &req)
	if err != nil {
		return mapError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate image", res))
}
