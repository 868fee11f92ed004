package controller

import (
	"fmt"
	"net/url"

	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/pkg/logger"
	"lamdam-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service   service.IOAuthService
	clientURL string
	logger    logger.ILogger
}

func NewOAuthController(service service.IOAuthService, clientURL string, logger logger.ILogger) IOAuthController {
	return &oauthController{service: service, clientURL: clientURL, logger: logger}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	// e.g., /auth/google
	h := r.Group("/auth")
	h.Get("/:provider", c.Login)
	h.Get("/:provider/callback", c.Callback)
}

func (c *oauthController) Login(ctx *fiber.Ctx) error {
	loginURL, err := c.service.GetLoginURL(ctx.Params("provider"))
	if err != nil {
		return err
	}
	return ctx.Redirect(loginURL, fiber.StatusTemporaryRedirect)
}

// Callback finishes the sign in and hands the session token to the web client.
func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")
	code := ctx.Query("code")
	if code == "" {
		return apperror.Validation("Missing code")
	}

	res, err := c.service.HandleCallback(ctx.UserContext(), provider, ctx.Query("state"), code)
	if err != nil {
		c.logger.Warn("OAUTH", "Callback failed", map[string]interface{}{"provider": provider, "error": err.Error()})
		return err
	}

	c.logger.Info("OAUTH", "User signed in", map[string]interface{}{"user_id": res.User.Id, "provider": provider})
	redirectURL := fmt.Sprintf("%s/auth/callback?token=%s", c.clientURL, url.QueryEscape(res.Token))
	return ctx.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}
