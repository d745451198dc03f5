// Package models contains domain entities persisted by the relay
package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantConfig holds the messaging credentials of one store.
// Unique by ShopDomain; a missing row means the store is not configured.
type TenantConfig struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_tenant_configs_uuid" json:"uuid"`

	ShopDomain    string `gorm:"size:255;not null;uniqueIndex:uk_tenant_configs_shop_domain" json:"shop_domain"`
	InstanceID    string `gorm:"size:255;not null" json:"instance_id"`
	AuthToken     string `gorm:"size:1024;not null" json:"-"`
	CountryPrefix string `gorm:"size:8" json:"country_prefix,omitempty"`

	IsActive  *bool     `gorm:"not null;default:true;index:idx_tenant_configs_is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;index:idx_tenant_configs_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (TenantConfig) TableName() string {
	return "tenant_configs"
}

// Active reports whether notifications may be dispatched for the store
func (t TenantConfig) Active() bool {
	return t.IsActive != nil && *t.IsActive
}

// TenantConfigFilter represents filter criteria for tenant config queries
type TenantConfigFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	ShopDomain    *string
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
