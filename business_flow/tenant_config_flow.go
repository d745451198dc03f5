package businessflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/amirphl/order-relay/app/dto"
	"github.com/amirphl/order-relay/app/services"
	"github.com/amirphl/order-relay/models"
	"github.com/amirphl/order-relay/repository"
	"github.com/amirphl/order-relay/utils"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// TenantConfigFlow administers per-store messaging configuration
type TenantConfigFlow interface {
	Upsert(ctx context.Context, req *dto.UpsertTenantConfigRequest, metadata *ClientMetadata) (*dto.TenantConfigDTO, error)
	SetActive(ctx context.Context, req *dto.SetTenantActiveRequest, metadata *ClientMetadata) (*dto.TenantConfigDTO, error)
	Get(ctx context.Context, shopDomain string) (*dto.TenantConfigDTO, error)
	List(ctx context.Context, activeOnly bool) (*dto.ListTenantConfigsResponse, error)
	SeedFromFile(ctx context.Context, path string) (int, error)
}

type TenantConfigFlowImpl struct {
	tenantRepo repository.TenantConfigRepository
	cipher     services.CredentialCipher
	validator  *validator.Validate
}

func NewTenantConfigFlow(tenantRepo repository.TenantConfigRepository, cipher services.CredentialCipher) TenantConfigFlow {
	if cipher == nil {
		cipher = services.NewCredentialCipher("")
	}
	return &TenantConfigFlowImpl{
		tenantRepo: tenantRepo,
		cipher:     cipher,
		validator:  validator.New(),
	}
}

// Upsert creates the store configuration or replaces its credentials.
// An empty Active keeps the current state of a known store.
func (f *TenantConfigFlowImpl) Upsert(ctx context.Context, req *dto.UpsertTenantConfigRequest, metadata *ClientMetadata) (result *dto.TenantConfigDTO, err error) {
	defer func() {
		if err != nil {
			err = NewBusinessError("TENANT_CONFIG_UPSERT_FAILED", "Failed to save tenant configuration", err)
		}
	}()

	shop := strings.TrimSpace(req.ShopDomain)
	if shop == "" {
		return nil, ErrShopDomainRequired
	}
	if strings.TrimSpace(req.InstanceID) == "" {
		return nil, ErrInstanceIDRequired
	}
	if strings.TrimSpace(req.Token) == "" {
		return nil, ErrAuthTokenRequired
	}
	if req.CountryPrefix != "" && strings.Trim(req.CountryPrefix, "0123456789") != "" {
		return nil, ErrInvalidCountryCode
	}

	var active *bool
	if req.Active != "" {
		active, err = parseActiveFlag(req.Active)
		if err != nil {
			return nil, err
		}
	}

	sealed, err := f.cipher.Seal(strings.TrimSpace(req.Token))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialsSealing, err)
	}

	cfg := &models.TenantConfig{
		ShopDomain:    shop,
		InstanceID:    strings.TrimSpace(req.InstanceID),
		AuthToken:     sealed,
		CountryPrefix: req.CountryPrefix,
		IsActive:      active,
	}
	if err = f.tenantRepo.Upsert(ctx, cfg); err != nil {
		return nil, err
	}

	utils.LoggerFromContext(ctx).InfoContext(ctx, "tenant configuration saved",
		slog.String("shop", cfg.ShopDomain),
		slog.Bool("active", cfg.Active()),
		slog.Bool("sealed", f.cipher.Enabled()),
		slog.String("ip", metadataIP(metadata)),
	)

	out := ToTenantConfigDTO(*cfg)
	return &out, nil
}

// SetActive switches dispatching on (estado=1) or off (estado=0) for a known store
func (f *TenantConfigFlowImpl) SetActive(ctx context.Context, req *dto.SetTenantActiveRequest, metadata *ClientMetadata) (result *dto.TenantConfigDTO, err error) {
	defer func() {
		if err != nil {
			err = NewBusinessError("TENANT_SET_ACTIVE_FAILED", "Failed to change tenant state", err)
		}
	}()

	shop := strings.TrimSpace(req.ShopDomain)
	if shop == "" {
		return nil, ErrShopDomainRequired
	}
	var active bool
	switch strings.TrimSpace(req.State) {
	case "1":
		active = true
	case "0":
		active = false
	default:
		return nil, ErrInvalidActiveFlag
	}

	found, err := f.tenantRepo.SetActive(ctx, shop, active)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrTenantNotFound
	}

	cfg, err := f.tenantRepo.ByShopDomain(ctx, shop)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrTenantNotFound
	}

	utils.LoggerFromContext(ctx).InfoContext(ctx, "tenant state changed",
		slog.String("shop", shop),
		slog.Bool("active", active),
		slog.String("ip", metadataIP(metadata)),
	)

	out := ToTenantConfigDTO(*cfg)
	return &out, nil
}

func (f *TenantConfigFlowImpl) Get(ctx context.Context, shopDomain string) (result *dto.TenantConfigDTO, err error) {
	defer func() {
		if err != nil {
			err = NewBusinessError("TENANT_GET_FAILED", "Failed to load tenant configuration", err)
		}
	}()

	shop := strings.TrimSpace(shopDomain)
	if shop == "" {
		return nil, ErrShopDomainRequired
	}
	cfg, err := f.tenantRepo.ByShopDomain(ctx, shop)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrTenantNotFound
	}
	out := ToTenantConfigDTO(*cfg)
	return &out, nil
}

func (f *TenantConfigFlowImpl) List(ctx context.Context, activeOnly bool) (result *dto.ListTenantConfigsResponse, err error) {
	defer func() {
		if err != nil {
			err = NewBusinessError("TENANT_LIST_FAILED", "Failed to list tenant configurations", err)
		}
	}()

	filter := models.TenantConfigFilter{}
	if activeOnly {
		filter.IsActive = utils.ToPtr(true)
	}

	rows, err := f.tenantRepo.ByFilter(ctx, filter, "shop_domain ASC", 0, 0)
	if err != nil {
		return nil, err
	}

	items := make([]dto.TenantConfigDTO, 0, len(rows))
	for _, r := range rows {
		items = append(items, ToTenantConfigDTO(*r))
	}
	return &dto.ListTenantConfigsResponse{Items: items, Total: int64(len(items))}, nil
}

// SeedFromFile upserts every store listed in a YAML seed file and returns how many were applied
func (f *TenantConfigFlowImpl) SeedFromFile(ctx context.Context, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, NewBusinessError("TENANT_SEED_READ_FAILED", "Failed to read tenant seed file", err)
	}

	var seed dto.TenantSeedFile
	if err := yaml.Unmarshal(content, &seed); err != nil {
		return 0, NewBusinessError("TENANT_SEED_INVALID", "Failed to parse tenant seed file", fmt.Errorf("%w: %v", ErrInvalidSeedFile, err))
	}

	for i, entry := range seed.Tenants {
		if err := f.validator.Struct(&entry); err != nil {
			return 0, NewBusinessErrorf("TENANT_SEED_INVALID", "Tenant seed entry %d is invalid", fmt.Errorf("%w: %v", ErrInvalidSeedFile, err), i)
		}
	}

	applied := 0
	for _, entry := range seed.Tenants {
		req := &dto.UpsertTenantConfigRequest{
			ShopDomain:    entry.ShopDomain,
			InstanceID:    entry.InstanceID,
			Token:         entry.Token,
			CountryPrefix: entry.CountryPrefix,
		}
		if entry.Active != nil {
			req.Active = "0"
			if *entry.Active {
				req.Active = "1"
			}
		}
		if _, err := f.Upsert(ctx, req, nil); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// parseActiveFlag accepts the values an HTML checkbox or a JSON client may send
func parseActiveFlag(value string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return utils.ToPtr(true), nil
	case "0", "false", "off", "no":
		return utils.ToPtr(false), nil
	default:
		return nil, ErrInvalidActiveFlag
	}
}

func metadataIP(metadata *ClientMetadata) string {
	if metadata == nil {
		return ""
	}
	return metadata.IPAddress
}
