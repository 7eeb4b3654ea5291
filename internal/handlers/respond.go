package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/freelancehub/backend/internal/auth"
	"github.com/freelancehub/backend/internal/lifecycle"
)

// fail maps lifecycle sentinels onto HTTP status codes and renders the
// standard error envelope. Unknown errors become a 500 without leaking
// internals.
func fail(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		code = fiber.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, lifecycle.ErrForbidden):
		code = fiber.StatusForbidden
		msg = err.Error()
	case errors.Is(err, lifecycle.ErrNotFound):
		code = fiber.StatusNotFound
		msg = err.Error()
	case errors.Is(err, lifecycle.ErrConflict):
		code = fiber.StatusConflict
		msg = err.Error()
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

func getCaller(c *fiber.Ctx) (auth.Caller, error) {
	caller, err := auth.FromCtx(c)
	if err != nil {
		return nil, fiber.ErrUnauthorized
	}
	return caller, nil
}
