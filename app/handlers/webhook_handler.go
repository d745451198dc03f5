package handlers

import (
	"bytes"

	"github.com/amirphl/order-relay/app/dto"
	businessflow "github.com/amirphl/order-relay/business_flow"
	"github.com/gofiber/fiber/v3"
)

// WebhookHandlerInterface defines the contract for order webhook handlers
type WebhookHandlerInterface interface {
	ReceiveOrder(c fiber.Ctx) error
}

// WebhookHandler receives order webhooks from the store platform
type WebhookHandler struct {
	flow businessflow.OrderNotificationFlow
}

func NewWebhookHandler(flow businessflow.OrderNotificationFlow) *WebhookHandler {
	return &WebhookHandler{flow: flow}
}

// ReceiveOrder notifies the customer of a new order
// @Summary Receive order webhook
// @Description Looks up the store credentials, formats the order notification and dispatches it once per order. Outcomes are reported in the body; the status code is always 200.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param X-Shopify-Shop-Domain header string false "Store domain, used when the payload has no source_name"
// @Param X-Shopify-Hmac-Sha256 header string false "Base64 HMAC-SHA256 of the body, required when a webhook secret is configured"
// @Param shop query string false "Store domain fallback"
// @Param request body dto.OrderEvent true "Order payload"
// @Success 200 {object} dto.OrderWebhookResult "Processing outcome"
// @Failure 401 {object} dto.APIResponse "Invalid webhook signature"
// @Router /webhook [post]
// @Router /api/v1/webhooks/orders [post]
func (h *WebhookHandler) ReceiveOrder(c fiber.Ctx) error {
	req := &dto.OrderWebhookRequest{
		Body:       bytes.Clone(c.Body()),
		ShopHeader: c.Get("X-Shopify-Shop-Domain"),
		ShopQuery:  c.Query("shop"),
		Topic:      c.Get("X-Shopify-Topic"),
		WebhookID:  c.Get("X-Shopify-Webhook-Id"),
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(requestID(c))

	ctx, cancel := createRequestContext(c, "/webhook", defaultRequestTimeout)
	defer cancel()

	result := h.flow.HandleOrderWebhook(ctx, req, metadata)
	return c.Status(fiber.StatusOK).JSON(result)
}
