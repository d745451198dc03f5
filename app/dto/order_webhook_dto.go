package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Webhook result statuses
const (
	WebhookStatusSent      = "sent"
	WebhookStatusFailed    = "failed"
	WebhookStatusDuplicate = "duplicate"
	WebhookStatusError     = "error"
)

// Webhook result messages
const (
	WebhookMessageInvalidPayload     = "invalid_payload"
	WebhookMessageMissingOrderID     = "missing_order_id"
	WebhookMessageTenantUnconfigured = "tenant_unconfigured"
	WebhookMessageTenantInactive     = "tenant_inactive"
	WebhookMessageMissingPhone       = "missing_phone"
	WebhookMessageDispatchFailure    = "dispatch_failure"
	WebhookMessageStorageFailure     = "storage_failure"
)

// OrderID is an order identifier sent either as a JSON number or a JSON string
type OrderID string

func (o *OrderID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*o = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = OrderID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("order id must be a number or a string: %w", err)
	}
	*o = OrderID(n.String())
	return nil
}

// Empty reports whether the identifier is missing, blank or zero
func (o OrderID) Empty() bool {
	s := strings.TrimSpace(string(o))
	return s == "" || strings.Trim(s, "0") == ""
}

func (o OrderID) String() string { return string(o) }

// OrderEvent is the subset of a store order payload the relay consumes
type OrderEvent struct {
	ID              OrderID         `json:"id"`
	Name            string          `json:"name"`
	SourceName      string          `json:"source_name"`
	Email           string          `json:"email"`
	Customer        *OrderCustomer  `json:"customer"`
	ShippingAddress *OrderAddress   `json:"shipping_address"`
	BillingAddress  *OrderAddress   `json:"billing_address"`
	LineItems       []OrderLineItem `json:"line_items"`
}

type OrderCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type OrderAddress struct {
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	Province  string `json:"province"`
	Country   string `json:"country"`
}

type OrderLineItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

// OrderWebhookRequest carries the raw webhook body and the tenant hints outside of it
type OrderWebhookRequest struct {
	Body       []byte
	ShopHeader string
	ShopQuery  string
	Topic      string
	WebhookID  string
}

// OrderWebhookResult is the in-body outcome returned to the webhook sender
type OrderWebhookResult struct {
	Status     string `json:"status"`
	OrderID    string `json:"order_id,omitempty"`
	Message    string `json:"message,omitempty"`
	Dispatched bool   `json:"dispatched,omitempty"`
}
