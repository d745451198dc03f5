// Package businessflow contains the relay use cases: order notification, tenant administration and history
package businessflow

import (
	"github.com/amirphl/order-relay/app/dto"
	"github.com/amirphl/order-relay/models"
)

// ClientMetadata holds client information attached to log lines of a request
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToTenantConfigDTO converts a tenant config to its admin view
func ToTenantConfigDTO(cfg models.TenantConfig) dto.TenantConfigDTO {
	return dto.TenantConfigDTO{
		UUID:          cfg.UUID.String(),
		ShopDomain:    cfg.ShopDomain,
		InstanceID:    cfg.InstanceID,
		TokenSet:      cfg.AuthToken != "",
		CountryPrefix: cfg.CountryPrefix,
		IsActive:      cfg.Active(),
		CreatedAt:     cfg.CreatedAt,
		UpdatedAt:     cfg.UpdatedAt,
	}
}

// ToNotificationRecordDTO converts a history row for display
func ToNotificationRecordDTO(record models.NotificationRecord) dto.NotificationRecordDTO {
	return dto.NotificationRecordDTO{
		UUID:             record.UUID.String(),
		OrderID:          record.OrderID,
		Phone:            record.Phone,
		MessageBody:      record.MessageBody,
		Status:           string(record.Status),
		ProviderResponse: record.ProviderResponse,
		FailureReason:    record.FailureReason,
		CreatedAt:        record.CreatedAt,
	}
}

func toNotificationRecordDTOs(records []*models.NotificationRecord) []dto.NotificationRecordDTO {
	items := make([]dto.NotificationRecordDTO, 0, len(records))
	for _, r := range records {
		items = append(items, ToNotificationRecordDTO(*r))
	}
	return items
}
