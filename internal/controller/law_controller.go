package controller

import (
	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/pkg/serverutils"
	"assembly-dashboard-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ILawController interface {
	RegisterRoutes(r fiber.Router)
	Stats(ctx *fiber.Ctx) error
	Options(ctx *fiber.Ctx) error
	StackByCategory(ctx *fiber.Ctx) error
	StackByParty(ctx *fiber.Ctx) error
}

type lawController struct {
	lawService service.ILawService
}

func NewLawController(lawService service.ILawService) ILawController {
	return &lawController{lawService: lawService}
}

func (c *lawController) RegisterRoutes(r fiber.Router) {
	r.Get("/law/stats", c.Stats)
	h := r.Group("/law2")
	h.Get("/options", c.Options)
	h.Get("/stack/category", c.StackByCategory)
	h.Get("/stack/party", c.StackByParty)
}

func (c *lawController) Stats(ctx *fiber.Ctx) error {
	var req dto.PageRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.lawService.Stats(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get law stats", res))
}

func (c *lawController) Options(ctx *fiber.Ctx) error {
	res, err := c.lawService.Options(ctx.UserContext(), ctx.Query("assembly"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get law options", res))
}

func (c *lawController) StackByCategory(ctx *fiber.Ctx) error {
	var req dto.LawStackRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := c.lawService.StackByCategory(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get law stack", res))
}

func (c *lawController) StackByParty(ctx *fiber.Ctx) error {
	res, err := c.lawService.StackByParty(ctx.UserContext(), ctx.Query("assembly"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get law stack", res))
}
