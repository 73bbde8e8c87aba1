package handler

import (
	"log/slog"
	"stock-notification-service/app/domain"
	"stock-notification-service/app/handler/api/response"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type StockHandler struct {
	stockUsecase domain.StockService
	validator    *validator.Validate
}

func NewStockHandler(stockUsecase domain.StockService, validator *validator.Validate) *StockHandler {
	return &StockHandler{
		stockUsecase: stockUsecase,
		validator:    validator,
	}
}

func (h *StockHandler) GetByProductID(c *fiber.Ctx) error {
	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		slog.ErrorContext(c.Context(), "[stockHandler] GetByProductID", "parseIDParam", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	stocks, err := h.stockUsecase.GetByProductID(c.Context(), productID)
	if err != nil {
		slog.ErrorContext(c.Context(), "[stockHandler] GetByProductID", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(stocks))
}

func (h *StockHandler) UpdateQuantity(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		slog.ErrorContext(c.Context(), "[stockHandler] UpdateQuantity", "parseIDParam", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	var req domain.UpdateQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[stockHandler] UpdateQuantity", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[stockHandler] UpdateQuantity", "validation", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrValidation))
	}

	resp, err := h.stockUsecase.UpdateQuantity(c.Context(), id, req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[stockHandler] UpdateQuantity", "usecase", err)
		status, errResp := response.FromError(err)
		return c.Status(status).JSON(errResp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(resp))
}

func parseIDParam(c *fiber.Ctx, name string) (int64, error) {
	raw := c.Params(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}
