package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationStatus enumerates the outcome stored for a notification attempt
type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusSent      NotificationStatus = "sent"
	NotificationStatusFailed    NotificationStatus = "failed"
	NotificationStatusDuplicate NotificationStatus = "duplicate"
)

// NotificationRecord is one customer notification attempt for an order.
// Rows are append-only; (shop_domain, order_id) is unique.
type NotificationRecord struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_notification_records_uuid" json:"uuid"`

	ShopDomain       string             `gorm:"size:255;not null;uniqueIndex:uk_notification_records_shop_order,priority:1;index:idx_notification_records_shop_domain" json:"shop_domain"`
	OrderID          string             `gorm:"size:64;not null;uniqueIndex:uk_notification_records_shop_order,priority:2" json:"order_id"`
	Phone            string             `gorm:"size:32;not null" json:"phone"`
	MessageBody      string             `gorm:"type:text;not null" json:"message_body"`
	Status           NotificationStatus `gorm:"size:16;not null;default:'pending';index:idx_notification_records_status" json:"status"`
	ProviderResponse *string            `gorm:"type:text" json:"provider_response,omitempty"`
	FailureReason    *string            `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt        time.Time          `gorm:"not null;index:idx_notification_records_created_at" json:"created_at"`
}

func (NotificationRecord) TableName() string { return "notification_records" }

// NotificationRecordFilter provides filter fields for repository queries
type NotificationRecordFilter struct {
	ID            *uint
	ShopDomain    *string
	OrderID       *string
	Phone         *string
	Status        *NotificationStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
