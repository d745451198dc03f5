package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/amirphl/order-relay/models"
	"github.com/amirphl/order-relay/utils"
	"github.com/google/uuid"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestTenant inserts a configured store
func (tf *TestFixtures) CreateTestTenant(shopDomain string, active bool) (*models.TenantConfig, error) {
	now := utils.UTCNow()
	tenant := &models.TenantConfig{
		UUID:       uuid.New(),
		ShopDomain: shopDomain,
		InstanceID: fmt.Sprintf("instance%d", rand.Intn(100000)),
		AuthToken:  fmt.Sprintf("token-%s", uuid.NewString()),
		IsActive:   utils.ToPtr(active),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tf.DB.DB.Create(tenant).Error; err != nil {
		return nil, fmt.Errorf("failed to create test tenant: %w", err)
	}
	return tenant, nil
}

// CreateTestNotification inserts a history row created at the given time
func (tf *TestFixtures) CreateTestNotification(shopDomain, orderID string, status models.NotificationStatus, createdAt time.Time) (*models.NotificationRecord, error) {
	record := &models.NotificationRecord{
		UUID:        uuid.New(),
		ShopDomain:  shopDomain,
		OrderID:     orderID,
		Phone:       "34600123456",
		MessageBody: fmt.Sprintf("order %s", orderID),
		Status:      status,
		CreatedAt:   createdAt,
	}
	if err := tf.DB.DB.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create test notification: %w", err)
	}
	return record, nil
}
