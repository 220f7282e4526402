package controller

import (
	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/pkg/serverutils"
	"assembly-dashboard-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type INewsController interface {
	RegisterRoutes(r fiber.Router)
	Issues(ctx *fiber.Ctx) error
	Issue(ctx *fiber.Ctx) error
}

type newsController struct {
	newsService service.INewsService
}

func NewNewsController(newsService service.INewsService) INewsController {
	return &newsController{newsService: newsService}
}

func (c *newsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/news")
	h.Get("/issues", c.Issues)
	h.Get("/issue", c.Issue)
}

func (c *newsController) Issues(ctx *fiber.Ctx) error {
	var req dto.NewsIssuesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.newsService.Issues(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get news issues", res))
}

func (c *newsController) Issue(ctx *fiber.Ctx) error {
	var req dto.NewsIssueRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.newsService.Issue(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get news issue", res))
}
