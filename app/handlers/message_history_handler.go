package handlers

import (
	"strconv"
	"strings"

	"github.com/amirphl/order-relay/app/dto"
	businessflow "github.com/amirphl/order-relay/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// MessageHistoryHandlerInterface defines the contract for history display handlers
type MessageHistoryHandlerInterface interface {
	Panel(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

// MessageHistoryHandler serves the notification history of a store
type MessageHistoryHandler struct {
	flow      businessflow.MessageHistoryFlow
	validator *validator.Validate
}

func NewMessageHistoryHandler(flow businessflow.MessageHistoryFlow) *MessageHistoryHandler {
	return &MessageHistoryHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *MessageHistoryHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *MessageHistoryHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Panel shows the store state and its latest notifications
// @Summary Store panel
// @Tags History
// @Produce json
// @Param shop query string true "Store domain"
// @Success 200 {object} dto.PanelResponse
// @Failure 400 {string} string "Missing shop"
// @Failure 404 {string} string "Unknown store"
// @Router /panel [get]
func (h *MessageHistoryHandler) Panel(c fiber.Ctx) error {
	shop := strings.TrimSpace(c.Query("shop"))
	if shop == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Falta el parámetro shop")
	}

	ctx, cancel := createRequestContext(c, "/panel", defaultRequestTimeout)
	defer cancel()

	panel, err := h.flow.Panel(ctx, shop)
	if err != nil {
		if businessflow.IsTenantNotFound(err) {
			return c.Status(fiber.StatusNotFound).SendString("Tienda no configurada")
		}
		return c.Status(fiber.StatusInternalServerError).SendString("Error interno")
	}
	return c.Status(fiber.StatusOK).JSON(panel)
}

// List returns a page of the store history, newest first
// @Summary List store notifications
// @Tags History
// @Produce json
// @Security BearerAuth
// @Param shop path string true "Store domain"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 50, max 500)"
// @Success 200 {object} dto.APIResponse{data=dto.ListMessageHistoryResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/admin/tenants/{shop}/messages [get]
func (h *MessageHistoryHandler) List(c fiber.Ctx) error {
	req := dto.ListMessageHistoryRequest{ShopDomain: shopParam(c)}
	var err error
	if req.Page, err = intQuery(c, "page"); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page", "INVALID_PAGE", err.Error())
	}
	if req.PageSize, err = intQuery(c, "page_size"); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page size", "INVALID_PAGE_SIZE", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/tenants/:shop/messages", defaultRequestTimeout)
	defer cancel()

	out, err := h.flow.ListHistory(ctx, &req)
	if err != nil {
		switch {
		case businessflow.IsTenantNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Tenant not found", "TENANT_NOT_FOUND", nil)
		case businessflow.IsInvalidPage(err), businessflow.IsInvalidPageSize(err), businessflow.IsShopDomainRequired(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid history query", "INVALID_HISTORY_QUERY", err.Error())
		default:
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list message history", "LIST_MESSAGE_HISTORY_FAILED", nil)
		}
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Message history retrieved", out)
}

// Export downloads the store history as an Excel workbook
// @Summary Export store notifications
// @Tags History
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param shop path string true "Store domain"
// @Success 200 {file} binary
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/admin/tenants/{shop}/messages/export [get]
func (h *MessageHistoryHandler) Export(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/admin/tenants/:shop/messages/export", defaultRequestTimeout)
	defer cancel()

	export, err := h.flow.ExportHistory(ctx, shopParam(c))
	if err != nil {
		switch {
		case businessflow.IsTenantNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Tenant not found", "TENANT_NOT_FOUND", nil)
		case businessflow.IsShopDomainRequired(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Shop domain is required", "SHOP_REQUIRED", nil)
		default:
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export message history", "EXPORT_MESSAGE_HISTORY_FAILED", nil)
		}
	}

	c.Set("Content-Type", export.ContentType)
	c.Set("Content-Disposition", "attachment; filename="+export.Filename)
	return c.Send(export.Content)
}

func intQuery(c fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
