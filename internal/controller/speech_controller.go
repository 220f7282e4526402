package controller

import (
	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/pkg/serverutils"
	"assembly-dashboard-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISpeechController interface {
	RegisterRoutes(r fiber.Router)
	Range(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
}

type speechController struct {
	speechService service.ISpeechService
}

func NewSpeechController(speechService service.ISpeechService) ISpeechController {
	return &speechController{speechService: speechService}
}

func (c *speechController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/speech")
	h.Get("/range", c.Range)
	h.Get("/search", c.Search)
}

func (c *speechController) Range(ctx *fiber.Ctx) error {
	res, err := c.speechService.Range(ctx.UserContext(), ctx.Query("kw"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get speech range", res))
}

func (c *speechController) Search(ctx *fiber.Ctx) error {
	var req dto.SpeechSearchRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.speechService.Search(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success search speeches", res))
}
