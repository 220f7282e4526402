package controller

import (
	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/pkg/serverutils"
	"assembly-dashboard-be/internal/service"
	"assembly-dashboard-be/pkg/store"

	"github.com/gofiber/fiber/v2"
)

type IRecapController interface {
	RegisterRoutes(r fiber.Router)
	Sessions(ctx *fiber.Ctx) error
	Recap(ctx *fiber.Ctx) error
	Overview(ctx *fiber.Ctx) error
}

type recapController struct {
	recapService service.IRecapService
}

func NewRecapController(recapService service.IRecapService) IRecapController {
	return &recapController{recapService: recapService}
}

func (c *recapController) RegisterRoutes(r fiber.Router) {
	r.Get("/sessions", c.Sessions)
	h := r.Group("/recap")
	h.Get("/overview", c.Overview)
	h.Get("/:view", c.Recap)
}

func (c *recapController) Sessions(ctx *fiber.Ctx) error {
	res, err := c.recapService.Sessions(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get sessions", res))
}

func (c *recapController) Recap(ctx *fiber.Ctx) error {
	var req dto.RecapRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.recapService.Recap(ctx.UserContext(), store.View(ctx.Params("view")), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get recap", res))
}

// Overview takes the session from session_no; 0 counts every session.
func (c *recapController) Overview(ctx *fiber.Ctx) error {
	session := ctx.QueryInt("session_no", 0)
	if session < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "session_no must not be negative")
	}

	res, err := c.recapService.Overview(ctx.UserContext(), session)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get overview", res))
}
