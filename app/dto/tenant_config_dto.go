package dto

import "time"

// UpsertTenantConfigRequest creates or replaces the messaging credentials of a store.
// Active accepts 1/0, true/false, on/off and yes/no; empty activates a new
// store and leaves an existing one as it is.
type UpsertTenantConfigRequest struct {
	ShopDomain    string `json:"shop" form:"shop" validate:"required,max=255"`
	InstanceID    string `json:"instance_id" form:"instance_id" validate:"required,max=255"`
	Token         string `json:"token" form:"token" validate:"required,max=512"`
	Active        string `json:"activa" form:"activa" validate:"omitempty,oneof=0 1 true false on off yes no"`
	CountryPrefix string `json:"country_prefix" form:"country_prefix" validate:"omitempty,numeric,max=4"`
}

// SetTenantActiveRequest toggles dispatching for a store
type SetTenantActiveRequest struct {
	ShopDomain string `json:"shop" validate:"required,max=255"`
	State      string `json:"estado" validate:"required,oneof=0 1"`
}

// TenantConfigDTO is the admin view of a store configuration; the auth token is never returned
type TenantConfigDTO struct {
	UUID          string    `json:"uuid"`
	ShopDomain    string    `json:"shop"`
	InstanceID    string    `json:"instance_id"`
	TokenSet      bool      `json:"token_set"`
	CountryPrefix string    `json:"country_prefix,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ListTenantConfigsResponse struct {
	Items []TenantConfigDTO `json:"items"`
	Total int64             `json:"total"`
}

// TenantSeedFile is the YAML document used to provision stores at startup
type TenantSeedFile struct {
	Tenants []TenantSeedEntry `yaml:"tenants"`
}

type TenantSeedEntry struct {
	ShopDomain    string `yaml:"shop" validate:"required,max=255"`
	InstanceID    string `yaml:"instance_id" validate:"required,max=255"`
	Token         string `yaml:"token" validate:"required,max=512"`
	Active        *bool  `yaml:"active"`
	CountryPrefix string `yaml:"country_prefix" validate:"omitempty,numeric,max=4"`
}
