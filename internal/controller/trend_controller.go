package controller

import (
	"net/url"

	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/pkg/serverutils"
	"assembly-dashboard-be/internal/service"
	"assembly-dashboard-be/pkg/dashboard/query"

	"github.com/gofiber/fiber/v2"
)

type ITrendController interface {
	RegisterRoutes(r fiber.Router)
	Options(ctx *fiber.Ctx) error
	Series(ctx *fiber.Ctx) error
	PartyDomainMetrics(ctx *fiber.Ctx) error
}

type trendController struct {
	trendService service.ITrendService
}

func NewTrendController(trendService service.ITrendService) ITrendController {
	return &trendController{trendService: trendService}
}

func (c *trendController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/trend2")
	h.Get("/options", c.Options)
	h.Get("/series", c.Series)
	r.Get("/party-domain-metrics", c.PartyDomainMetrics)
}

func (c *trendController) Options(ctx *fiber.Ctx) error {
	res, err := c.trendService.Options(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get trend options", res))
}

// Series accepts the canonical query string produced by POST /dashboard/query.
func (c *trendController) Series(ctx *fiber.Ctx) error {
	values, err := url.ParseQuery(string(ctx.Request().URI().QueryString()))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	params, err := query.Decode(values)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := c.trendService.Series(ctx.UserContext(), params)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get trend series", res))
}

func (c *trendController) PartyDomainMetrics(ctx *fiber.Ctx) error {
	var req dto.PageRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.trendService.PartyDomainMetrics(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get party domain metrics", res))
}
