package controller

import (
	"lamdam-be/internal/entity"
	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/pkg/serverutils"
	"lamdam-be/internal/repository/specification"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func currentViewer(ctx *fiber.Ctx) (specification.Viewer, error) {
	session := serverutils.CurrentSession(ctx)
	id, err := uuid.Parse(session.UserID)
	if err != nil {
		return specification.Viewer{}, apperror.Unauthorized("Invalid session")
	}
	return specification.Viewer{ID: id, Role: entity.UserRole(session.Role)}, nil
}

func uuidParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperror.Validation("%s must be a valid uuid", name)
	}
	return id, nil
}

func uuidQuery(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Query(name))
	if err != nil {
		return uuid.Nil, apperror.Validation("%s is required", name)
	}
	return id, nil
}

func bodyParser(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		return apperror.Validation("invalid request body")
	}
	return nil
}
