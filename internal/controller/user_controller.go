package controller

import (
	"lamdam-be/internal/dto"
	"lamdam-be/internal/entity"
	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/pkg/serverutils"
	"lamdam-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IUserController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Me(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	StatsSeries(ctx *fiber.Ctx) error
	OrgStats(ctx *fiber.Ctx) error
}

type userController struct {
	userService  service.IUserService
	statsService service.IStatsService
}

func NewUserController(userService service.IUserService, statsService service.IStatsService) IUserController {
	return &userController{
		userService:  userService,
		statsService: statsService,
	}
}

func (c *userController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	superuser := serverutils.RequireRoles(string(entity.UserRoleSuperuser))

	r.Get("/me", auth, c.Me)
	r.Get("/stats", auth, c.OrgStats)

	h := r.Group("/users", auth)
	h.Get("", superuser, c.GetAll)
	h.Get("/:id", c.Show)
	h.Put("/:id", superuser, c.Update)
	h.Get("/:id/stats-series", c.StatsSeries)
}

// selfOr resolves the :id parameter and allows the request when it names the
// caller or the caller holds one of roles.
func selfOr(ctx *fiber.Ctx, roles ...entity.UserRole) (uuid.UUID, error) {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return uuid.Nil, err
	}
	if id == viewer.ID {
		return id, nil
	}
	for _, role := range roles {
		if viewer.Role == role {
			return id, nil
		}
	}
	return uuid.Nil, apperror.Forbidden("Access denied")
}

func (c *userController) Me(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	res, err := c.userService.Show(ctx.UserContext(), viewer.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get current user", res))
}

func (c *userController) GetAll(ctx *fiber.Ctx) error {
	var req dto.ListUsersRequest
	if err := ctx.QueryParser(&req); err != nil {
		return apperror.Validation("invalid query")
	}

	res, err := c.userService.List(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get users", res))
}

func (c *userController) Show(ctx *fiber.Ctx) error {
	id, err := selfOr(ctx, entity.UserRoleSuperuser)
	if err != nil {
		return err
	}

	res, err := c.userService.Show(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show user", res))
}

func (c *userController) Update(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateUserRequest
	if err := bodyParser(ctx, &req); err != nil {
		return err
	}
	req.Id = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.userService.Update(ctx.UserContext(), viewer.ID, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update user", res))
}

func (c *userController) StatsSeries(ctx *fiber.Ctx) error {
	id, err := selfOr(ctx, entity.UserRoleSuperuser, entity.UserRoleCorrector)
	if err != nil {
		return err
	}

	var req dto.StatsSeriesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return apperror.Validation("invalid query")
	}

	res, err := c.statsService.UserSeries(ctx.UserContext(), id, req.Date)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get stats series", res))
}

func (c *userController) OrgStats(ctx *fiber.Ctx) error {
	var req dto.StatsSeriesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return apperror.Validation("invalid query")
	}

	res, err := c.statsService.OrgStats(ctx.UserContext(), req.Date)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get stats", res))
}
