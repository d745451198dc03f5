package repository

import (
	"context"

	"github.com/amirphl/order-relay/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// TenantConfigRepository defines operations for per-store messaging configuration
type TenantConfigRepository interface {
	Repository[models.TenantConfig, models.TenantConfigFilter]
	ByShopDomain(ctx context.Context, shopDomain string) (*models.TenantConfig, error)
	Upsert(ctx context.Context, cfg *models.TenantConfig) error
	SetActive(ctx context.Context, shopDomain string, active bool) (bool, error)
}

// NotificationRecordRepository defines the append-only notification history
type NotificationRecordRepository interface {
	Repository[models.NotificationRecord, models.NotificationRecordFilter]
	ExistsForOrder(ctx context.Context, shopDomain, orderID string) (bool, error)
	ListByShop(ctx context.Context, shopDomain string, limit, offset int) ([]*models.NotificationRecord, error)
}
