package response

import (
	"errors"
	"stock-notification-service/app/domain"

	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Success(data any) *Response {
	return &Response{
		Success: true,
		Data:    data,
	}
}

func Error(err error) *Response {
	return &Response{
		Success: false,
		Error:   err.Error(),
	}
}

func FromError(err error) (int, *Response) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, Error(domain.ErrValidation)
	case errors.Is(err, domain.ErrInvalidRequest):
		return fiber.StatusBadRequest, Error(err)
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, Error(err)
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, Error(domain.ErrNotFound)
	case errors.Is(err, domain.ErrBadRequest):
		return fiber.StatusBadRequest, Error(err)
	case errors.Is(err, domain.ErrUnresolvableAddress):
		return fiber.StatusBadRequest, Error(domain.ErrUnresolvableAddress)
	case errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict, Error(domain.ErrInvalidTransition)
	case errors.Is(err, domain.ErrVersionMismatch):
		return fiber.StatusConflict, Error(domain.ErrVersionMismatch)
	default:
		return fiber.StatusInternalServerError, Error(domain.ErrInternal)
	}
}
