package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/spot-form-api/internal/dto"
	"github.com/noah-isme/spot-form-api/internal/utils"
)

// Help serves the help and instructions content.
func Help() fiber.Handler {
	content := dto.DefaultHelp()
	return func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "help content", content)
	}
}
