package controller

import (
	"lamdam-be/internal/dto"
	"lamdam-be/internal/entity"
	"lamdam-be/internal/pkg/serverutils"
	"lamdam-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IRecordController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Move(ctx *fiber.Ctx) error
	ChangeStatus(ctx *fiber.Ctx) error
	Export(ctx *fiber.Ctx) error
	Import(ctx *fiber.Ctx) error
}

type recordController struct {
	service service.IRecordService
}

func NewRecordController(service service.IRecordService) IRecordController {
	return &recordController{service: service}
}

func (c *recordController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/records", auth)
	moderators := serverutils.RequireRoles(string(entity.UserRoleSuperuser), string(entity.UserRoleCorrector))

	h.Get("", c.GetAll)
	h.Post("", c.Create)
	// Static paths first so they are not captured by :id.
	h.Post("/export", c.Export)
	h.Post("/import", moderators, c.Import)
	h.Get("/:id", c.Show)
	h.Put("/:id", c.Update)
	h.Delete("/:id", c.Delete)
	h.Post("/:id/move", c.Move)
	h.Post("/:id/changeStatus", moderators, c.ChangeStatus)
}

func (c *recordController) GetAll(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	var req dto.ListRecordsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), viewer, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get records", res))
}

func (c *recordController) Show(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}
	collectionId, err := uuidQuery(ctx, "collectionId")
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), viewer, collectionId, ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show record", res))
}

func (c *recordController) Create(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateRecordRequest
	if err := bodyParser(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), viewer, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create record", res))
}

func (c *recordController) Update(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateRecordRequest
	if err := bodyParser(ctx, &req); err != nil {
		return err
	}
	req.Id = ctx.Params("id")
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), viewer, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update record", res))
}

func (c *recordController) Delete(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}
	collectionId, err := uuidQuery(ctx, "collectionId")
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.UserContext(), viewer, collectionId, ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete record", nil))
}

func (c *recordController) Move(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	var req dto.MoveRecordRequest
	if err := bodyParser(ctx, &req); err != nil {
		return err
	}
	req.Id = ctx.Params("id")
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Move(ctx.UserContext(), viewer, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success move record", res))
}

func (c *recordController) ChangeStatus(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	var req dto.ChangeStatusRequest
	if err := bodyParser(ctx, &req); err != nil {
		return err
	}
	req.Id = ctx.Params("id")
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ChangeStatus(ctx.UserContext(), viewer, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success change record status", res))
}

// Export is open to every signed-in role; only approved records leave.
func (c *recordController) Export(ctx *fiber.Ctx) error {
	var req dto.ExportRecordsRequest
	if err := bodyParser(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Export(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success export records", res))
}

func (c *recordController) Import(ctx *fiber.Ctx) error {
	viewer, err := currentViewer(ctx)
	if err != nil {
		return err
	}

	var req dto.ImportRecordsRequest
	if err := bodyParser(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Import(ctx.UserContext(), viewer, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success import records", res))
}
