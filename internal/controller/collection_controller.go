package controller

import (
	"lamdam-be/internal/dto"
	"lamdam-be/internal/entity"
	"lamdam-be/internal/pkg/serverutils"
	"lamdam-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICollectionController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Recount(ctx *fiber.Ctx) error
}

type collectionController struct {
	service service.ICollectionService
}

func NewCollectionController(service service.ICollectionService) ICollectionController {
	return &collectionController{service: service}
}

func (c *collectionController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/collections", auth)
	superuser := serverutils.RequireRoles(string(entity.UserRoleSuperuser))

	h.Get("", c.GetAll)
	h.Post("", superuser, c.Create)
	h.Get("/:id", c.Show)
	h.Post("/:id/recount", superuser, c.Recount)
}

func (c *collectionController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all collections", res))
}

func (c *collectionController) Show(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show collection", res))
}

func (c *collectionController) Create(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateCollectionRequest
	if err := bodyParser(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), viewer.ID, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create collection", res))
}

func (c *collectionController) Recount(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.Recount(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success recount collection", res))
}
