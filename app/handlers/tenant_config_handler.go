package handlers

import (
	"net/url"
	"strings"

	"github.com/amirphl/order-relay/app/dto"
	businessflow "github.com/amirphl/order-relay/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// TenantConfigHandlerInterface defines the contract for tenant configuration handlers
type TenantConfigHandlerInterface interface {
	ToggleState(c fiber.Ctx) error
	SubmitForm(c fiber.Ctx) error
	Upsert(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	List(c fiber.Ctx) error
}

// TenantConfigHandler serves the store configuration endpoints
type TenantConfigHandler struct {
	flow      businessflow.TenantConfigFlow
	validator *validator.Validate
}

func NewTenantConfigHandler(flow businessflow.TenantConfigFlow) *TenantConfigHandler {
	return &TenantConfigHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *TenantConfigHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TenantConfigHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ToggleState switches dispatching on or off for a store
// @Summary Toggle store activation
// @Tags Tenants
// @Produce plain
// @Param shop query string true "Store domain"
// @Param estado query string true "1 enables, 0 disables"
// @Success 302 "Redirect to the store panel"
// @Failure 400 {string} string "Missing shop or invalid estado"
// @Failure 404 {string} string "Unknown store"
// @Router /configuracion/estado [get]
func (h *TenantConfigHandler) ToggleState(c fiber.Ctx) error {
	req := dto.SetTenantActiveRequest{
		ShopDomain: strings.TrimSpace(c.Query("shop")),
		State:      strings.TrimSpace(c.Query("estado")),
	}
	if req.ShopDomain == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Falta el parámetro shop")
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	ctx, cancel := createRequestContext(c, "/configuracion/estado", defaultRequestTimeout)
	defer cancel()

	if _, err := h.flow.SetActive(ctx, &req, metadata); err != nil {
		switch {
		case businessflow.IsInvalidActiveFlag(err):
			return c.Status(fiber.StatusBadRequest).SendString("El parámetro estado debe ser 0 o 1")
		case businessflow.IsTenantNotFound(err):
			return c.Status(fiber.StatusNotFound).SendString("Tienda no configurada")
		default:
			return c.Status(fiber.StatusInternalServerError).SendString("Error interno")
		}
	}
	return c.Redirect().Status(fiber.StatusFound).To(panelLocation(req.ShopDomain, c.Query("token")))
}

// SubmitForm saves the configuration posted by the store form
// @Summary Submit store configuration form
// @Tags Tenants
// @Accept x-www-form-urlencoded
// @Accept json
// @Produce plain
// @Param shop formData string true "Store domain"
// @Param instance_id formData string true "Messaging instance id"
// @Param token formData string true "Messaging token"
// @Param activa formData string false "1/0, true/false, on/off or yes/no; absent from a form means 0"
// @Param country_prefix formData string false "Phone country prefix"
// @Success 302 "Redirect to the store panel"
// @Failure 400 {string} string "Invalid form"
// @Router /configuracion [post]
func (h *TenantConfigHandler) SubmitForm(c fiber.Ctx) error {
	var req dto.UpsertTenantConfigRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Formulario inválido")
	}
	if strings.TrimSpace(req.ShopDomain) == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Falta el parámetro shop")
	}
	// an unchecked checkbox is not posted at all
	if req.Active == "" && !c.Is("json") {
		req.Active = "0"
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(strings.Join(validationDetails(err), "; "))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	ctx, cancel := createRequestContext(c, "/configuracion", defaultRequestTimeout)
	defer cancel()

	out, err := h.flow.Upsert(ctx, &req, metadata)
	if err != nil {
		if isTenantInputError(err) {
			return c.Status(fiber.StatusBadRequest).SendString(err.Error())
		}
		return c.Status(fiber.StatusInternalServerError).SendString("Error interno")
	}
	return c.Redirect().Status(fiber.StatusFound).To(panelLocation(out.ShopDomain, c.Query("token")))
}

// Upsert creates or replaces a store configuration
// @Summary Upsert store configuration
// @Tags Tenants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param shop path string true "Store domain"
// @Param request body dto.UpsertTenantConfigRequest true "Configuration"
// @Success 200 {object} dto.APIResponse{data=dto.TenantConfigDTO}
// @Failure 400 {object} dto.APIResponse
// @Failure 401 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/admin/tenants/{shop} [put]
func (h *TenantConfigHandler) Upsert(c fiber.Ctx) error {
	var req dto.UpsertTenantConfigRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.ShopDomain = shopParam(c)
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	ctx, cancel := createRequestContext(c, "/api/v1/admin/tenants/:shop", defaultRequestTimeout)
	defer cancel()

	out, err := h.flow.Upsert(ctx, &req, metadata)
	if err != nil {
		if isTenantInputError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tenant configuration", "INVALID_TENANT_CONFIG", err.Error())
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save tenant configuration", "TENANT_CONFIG_UPSERT_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Tenant configuration saved", out)
}

// Get returns a store configuration
// @Summary Get store configuration
// @Tags Tenants
// @Produce json
// @Security BearerAuth
// @Param shop path string true "Store domain"
// @Success 200 {object} dto.APIResponse{data=dto.TenantConfigDTO}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/admin/tenants/{shop} [get]
func (h *TenantConfigHandler) Get(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/admin/tenants/:shop", defaultRequestTimeout)
	defer cancel()

	out, err := h.flow.Get(ctx, shopParam(c))
	if err != nil {
		switch {
		case businessflow.IsTenantNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Tenant not found", "TENANT_NOT_FOUND", nil)
		case businessflow.IsShopDomainRequired(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Shop domain is required", "SHOP_REQUIRED", nil)
		default:
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load tenant configuration", "TENANT_GET_FAILED", nil)
		}
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Tenant configuration retrieved", out)
}

// List returns every store configuration
// @Summary List store configurations
// @Tags Tenants
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only active stores"
// @Success 200 {object} dto.APIResponse{data=dto.ListTenantConfigsResponse}
// @Router /api/v1/admin/tenants [get]
func (h *TenantConfigHandler) List(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/admin/tenants", defaultRequestTimeout)
	defer cancel()

	out, err := h.flow.List(ctx, fiber.Query[bool](c, "active"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list tenant configurations", "TENANT_LIST_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Tenant configurations retrieved", out)
}

func isTenantInputError(err error) bool {
	return businessflow.IsShopDomainRequired(err) ||
		businessflow.IsInstanceIDRequired(err) ||
		businessflow.IsAuthTokenRequired(err) ||
		businessflow.IsInvalidCountryCode(err) ||
		businessflow.IsInvalidActiveFlag(err)
}

func shopParam(c fiber.Ctx) string {
	shop, err := url.PathUnescape(c.Params("shop"))
	if err != nil {
		return c.Params("shop")
	}
	return strings.TrimSpace(shop)
}

// panelLocation keeps the admin token so the redirected browser stays authorised
func panelLocation(shop, token string) string {
	q := url.Values{}
	q.Set("shop", shop)
	if token != "" {
		q.Set("token", token)
	}
	return "/panel?" + q.Encode()
}
