package handler

import (
	"errors"
	"log/slog"
	"stock-notification-service/app/domain"
	"stock-notification-service/app/handler/api/response"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// StockEventHandler accepts level changes observed by another service and
// runs the dispatch for them.
type StockEventHandler struct {
	dispatcher domain.Dispatcher
	validator  *validator.Validate
}

func NewStockEventHandler(dispatcher domain.Dispatcher, validator *validator.Validate) *StockEventHandler {
	return &StockEventHandler{
		dispatcher: dispatcher,
		validator:  validator,
	}
}

func (h *StockEventHandler) Create(c *fiber.Ctx) error {
	var req domain.StockEventRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[stockEventHandler] Create", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[stockEventHandler] Create", "validation", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrValidation))
	}

	report, err := h.dispatcher.OnStockChange(c.Context(), req.ProductID, *req.PreviousLevel, *req.NewLevel)
	if err != nil {
		var dispatchErr *domain.DispatchError
		if !errors.As(err, &dispatchErr) {
			slog.ErrorContext(c.Context(), "[stockEventHandler] Create", "dispatch", err)
			status, resp := response.FromError(err)
			return c.Status(status).JSON(resp)
		}
		// Per-notification failures are already counted in the report.
		slog.WarnContext(c.Context(), "[stockEventHandler] Create", "dispatch", err)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(report))
}
