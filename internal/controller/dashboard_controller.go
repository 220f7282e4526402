package controller

import (
	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/pkg/serverutils"
	"assembly-dashboard-be/internal/service"
	"assembly-dashboard-be/pkg/dashboard/query"
	"assembly-dashboard-be/pkg/store"

	"github.com/gofiber/fiber/v2"
)

type IDashboardController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Dispatch(ctx *fiber.Ctx) error
	Reload(ctx *fiber.Ctx) error
	LoadView(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
	ComposeQuery(ctx *fiber.Ctx) error
}

type dashboardController struct {
	dashboardService service.IDashboardService
	trendService     service.ITrendService
}

func NewDashboardController(dashboardService service.IDashboardService, trendService service.ITrendService) IDashboardController {
	return &dashboardController{
		dashboardService: dashboardService,
		trendService:     trendService,
	}
}

func (c *dashboardController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/dashboard")
	h.Post("/query", c.ComposeQuery)
	h.Post("/sessions", c.Create)
	h.Get("/sessions/:id", c.Show)
	h.Post("/sessions/:id/events", c.Dispatch)
	h.Post("/sessions/:id/reload", c.Reload)
	h.Get("/sessions/:id/views/:view", c.LoadView)
	h.Delete("/sessions/:id", c.Close)
}

func (c *dashboardController) Create(ctx *fiber.Ctx) error {
	res, err := c.dashboardService.Create(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Dashboard created", res))
}

func (c *dashboardController) Show(ctx *fiber.Ctx) error {
	res, err := c.dashboardService.State(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get dashboard", res))
}

func (c *dashboardController) Dispatch(ctx *fiber.Ctx) error {
	var req dto.DispatchEventRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.dashboardService.Dispatch(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Event applied", res))
}

func (c *dashboardController) Reload(ctx *fiber.Ctx) error {
	res, err := c.dashboardService.ReloadSessions(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session list reloaded", res))
}

func (c *dashboardController) LoadView(ctx *fiber.Ctx) error {
	res, err := c.dashboardService.LoadView(ctx.UserContext(), ctx.Params("id"), store.View(ctx.Params("view")))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success load view", res))
}

func (c *dashboardController) Close(ctx *fiber.Ctx) error {
	if err := c.dashboardService.Close(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Dashboard closed", nil))
}

func (c *dashboardController) ComposeQuery(ctx *fiber.Ctx) error {
	var params query.Params
	if err := ctx.BodyParser(&params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := c.trendService.Compose(params)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success compose query", res))
}
