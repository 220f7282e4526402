package controller

import (
	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/pkg/serverutils"
	"assembly-dashboard-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IQuestionController interface {
	RegisterRoutes(r fiber.Router)
	Stats(ctx *fiber.Ctx) error
	Rank(ctx *fiber.Ctx) error
}

type questionController struct {
	questionService service.IQuestionService
}

func NewQuestionController(questionService service.IQuestionService) IQuestionController {
	return &questionController{questionService: questionService}
}

func (c *questionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/questions")
	h.Get("/stats/session", c.Stats)
	h.Get("/rank", c.Rank)
}

func (c *questionController) Stats(ctx *fiber.Ctx) error {
	var req dto.QuestionStatsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.questionService.Stats(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get question stats", res))
}

func (c *questionController) Rank(ctx *fiber.Ctx) error {
	var req dto.RankRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.questionService.Rank(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get speaker ranking", res))
}
