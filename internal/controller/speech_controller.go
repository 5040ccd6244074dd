package controller

import (
	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/pkg/serverutils"
	"nexus-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISpeechController interface {
	RegisterRoutes(r fiber.Router)
	Synthesize(ctx *fiber.Ctx) error
	Play(ctx *fiber.Ctx) error
	Stop(ctx *fiber.Ctx) error
}

type speechController struct {
	speechService service.ISpeechService
}

func NewSpeechController(speechService service.ISpeechService) ISpeechController {
	return &speechController{
		speechService: speechService,
	}
}

func (c *speechController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/speech/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("synthesize", c.Synthesize)
	h.Post("play", c.Play)
	h.Post("stop", c.Stop)
}

func (c *speechController) Synthesize(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.SynthesizeSpeechRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.speechService.Synthesize(ctx.Context(), userId, &req)
	if err != nil {
		return mapError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success synthesize speech", res))
}

func (c *speechController) Play(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.PlaySpeechRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.speechService.Play(ctx.Context(), userId, &req); err != nil {
		return mapError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success start playback", nil))
}

func (c *speechController) Stop(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	if err := c.speechService.Stop(ctx.Context(), userId); err != nil {
		return mapError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success stop playback", nil))
}
