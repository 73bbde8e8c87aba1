package handler

import (
	"log/slog"
	"stock-notification-service/app/domain"
	"stock-notification-service/app/handler/api/response"
	"stock-notification-service/pkg/ctxutil"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type ProductNotificationHandler struct {
	notificationUsecase domain.ProductNotificationService
	validator           *validator.Validate
}

func NewProductNotificationHandler(notificationUsecase domain.ProductNotificationService, validator *validator.Validate) *ProductNotificationHandler {
	return &ProductNotificationHandler{
		notificationUsecase: notificationUsecase,
		validator:           validator,
	}
}

func (h *ProductNotificationHandler) Create(c *fiber.Ctx) error {
	var req domain.ProductNotificationCreateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[productNotificationHandler] Create", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[productNotificationHandler] Create", "validation", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrValidation))
	}

	notification, err := h.notificationUsecase.Create(c.Context(), req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[productNotificationHandler] Create", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusCreated).JSON(response.Success(notification))
}

func (h *ProductNotificationHandler) GetByProductID(c *fiber.Ctx) error {
	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		slog.ErrorContext(c.Context(), "[productNotificationHandler] GetByProductID", "parseIDParam", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	status := domain.NotificationStatus(c.Query("status"))
	notifications, err := h.notificationUsecase.GetByProductID(c.Context(), productID, status)
	if err != nil {
		slog.ErrorContext(c.Context(), "[productNotificationHandler] GetByProductID", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(notifications))
}

func (h *ProductNotificationHandler) GetMine(c *fiber.Ctx) error {
	userID, ok := c.Locals(ctxutil.UserIDKey).(int64)
	if !ok || userID == 0 {
		slog.ErrorContext(c.Context(), "[productNotificationHandler] GetMine", "userID", "missing")
		return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
	}

	notifications, err := h.notificationUsecase.GetByUserID(c.Context(), userID)
	if err != nil {
		slog.ErrorContext(c.Context(), "[productNotificationHandler] GetMine", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(notifications))
}
