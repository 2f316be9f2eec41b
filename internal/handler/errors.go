package handler

import (
	"errors"
	"strings"

	"commust/internal/applog"
	"commust/internal/events"
	"commust/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respondError maps service errors to HTTP statuses. Unexpected errors are logged and hidden.
func respondError(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case service.IsValidation(err):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	applog.Error(c, action, err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
}

// actor builds the event actor from the identity RequireAuth stored in Locals.
func actor(c *fiber.Ctx) events.Actor {
	a := events.Actor{ID: "system", Name: "Unknown"}
	if v, ok := c.Locals("user_id").(string); ok {
		a.ID = v
	}
	if v, ok := c.Locals("user_name").(string); ok {
		a.Name = v
	}
	if v, ok := c.Locals("user_email").(string); ok {
		a.Email = v
	}
	return a
}

func paramID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

func wantsJSON(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}
