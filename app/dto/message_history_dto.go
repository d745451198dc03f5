package dto

import "time"

// ListMessageHistoryRequest selects a page of a store's notification history
type ListMessageHistoryRequest struct {
	ShopDomain string `json:"shop" validate:"required,max=255"`
	Page       int    `json:"page" validate:"omitempty,gte=1"`
	PageSize   int    `json:"page_size" validate:"omitempty,gte=1,lte=500"`
}

type NotificationRecordDTO struct {
	UUID             string    `json:"uuid"`
	OrderID          string    `json:"order_id"`
	Phone            string    `json:"phone"`
	MessageBody      string    `json:"message_body"`
	Status           string    `json:"status"`
	ProviderResponse *string   `json:"provider_response,omitempty"`
	FailureReason    *string   `json:"failure_reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type ListMessageHistoryResponse struct {
	ShopDomain string                  `json:"shop"`
	Items      []NotificationRecordDTO `json:"items"`
	Pagination PaginationInfo          `json:"pagination"`
}

// PanelResponse is the status display of one store
type PanelResponse struct {
	ShopDomain string                  `json:"shop"`
	Active     bool                    `json:"active"`
	InstanceID string                  `json:"instance_id"`
	Messages   []NotificationRecordDTO `json:"messages"`
}

// MessageHistoryExport is a rendered spreadsheet of a store's history
type MessageHistoryExport struct {
	Filename    string
	ContentType string
	Content     []byte
}
