package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"

	"github.com/amirphl/order-relay/app/dto"
	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WebhookSignatureHeader carries the base64 HMAC-SHA256 of the raw request body
const WebhookSignatureHeader = "X-Shopify-Hmac-Sha256"

var webhookSignatureRejected = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "relay_webhook_signature_rejected_total",
		Help: "Order webhooks rejected because of a missing or wrong signature",
	},
)

// WebhookSignature rejects order webhooks whose signature does not match secret.
// An empty secret disables verification.
func WebhookSignature(secret string) fiber.Handler {
	key := []byte(secret)
	return func(c fiber.Ctx) error {
		if len(key) == 0 {
			return c.Next()
		}

		provided, err := base64.StdEncoding.DecodeString(c.Get(WebhookSignatureHeader))
		if err != nil || len(provided) == 0 || !hmac.Equal(provided, SignWebhookBody(key, c.Body())) {
			webhookSignatureRejected.Inc()
			slog.Warn("order webhook signature rejected",
				slog.String("ip", c.IP()),
				slog.String("shop", c.Get("X-Shopify-Shop-Domain")),
			)
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid webhook signature",
				Error:   dto.ErrorDetail{Code: "INVALID_WEBHOOK_SIGNATURE"},
			})
		}
		return c.Next()
	}
}

// SignWebhookBody returns the raw HMAC-SHA256 of body under key
func SignWebhookBody(key, body []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	return mac.Sum(nil)
}
