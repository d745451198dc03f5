package repository

import (
	"context"
	"errors"

	"github.com/amirphl/order-relay/models"
	"github.com/amirphl/order-relay/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenantConfigRepositoryImpl implements TenantConfigRepository interface
type TenantConfigRepositoryImpl struct {
	*BaseRepository[models.TenantConfig, models.TenantConfigFilter]
}

// NewTenantConfigRepository creates a new tenant config repository
func NewTenantConfigRepository(db *gorm.DB) TenantConfigRepository {
	return &TenantConfigRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TenantConfig, models.TenantConfigFilter](db),
	}
}

// ByShopDomain returns the configuration of a store, or nil when it is not configured
func (r *TenantConfigRepositoryImpl) ByShopDomain(ctx context.Context, shopDomain string) (*models.TenantConfig, error) {
	filter := models.TenantConfigFilter{ShopDomain: &shopDomain}
	items, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// Upsert inserts the configuration or replaces the credentials of an existing store.
// UUID and CreatedAt of an existing row are preserved.
func (r *TenantConfigRepositoryImpl) Upsert(ctx context.Context, cfg *models.TenantConfig) (err error) {
	if cfg == nil {
		return errors.New("tenant config payload is nil")
	}
	if cfg.ShopDomain == "" {
		return errors.New("shop domain is required for upsert")
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
				return
			}
			err = db.Commit().Error
		}()
	}

	now := utils.UTCNow()
	if cfg.UUID == uuid.Nil {
		cfg.UUID = uuid.New()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	// a nil IsActive activates new stores and keeps the flag of existing ones
	updates := []string{"instance_id", "auth_token", "country_prefix", "updated_at"}
	if cfg.IsActive == nil {
		cfg.IsActive = utils.ToPtr(true)
	} else {
		updates = append(updates, "is_active")
	}

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop_domain"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(cfg).Error
	if err != nil {
		return err
	}

	// Reload so callers see the persisted identity of a pre-existing row
	var stored models.TenantConfig
	if err = db.Where("shop_domain = ?", cfg.ShopDomain).Last(&stored).Error; err != nil {
		return err
	}
	*cfg = stored
	return nil
}

// SetActive flips the active flag; it reports false when the store is unknown
func (r *TenantConfigRepositoryImpl) SetActive(ctx context.Context, shopDomain string, active bool) (found bool, err error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
				return
			}
			err = db.Commit().Error
		}()
	}

	result := db.Model(&models.TenantConfig{}).
		Where("shop_domain = ?", shopDomain).
		Updates(map[string]any{
			"is_active":  active,
			"updated_at": utils.UTCNow(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *TenantConfigRepositoryImpl) applyFilter(query *gorm.DB, filter models.TenantConfigFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.ShopDomain != nil {
		query = query.Where("shop_domain = ?", *filter.ShopDomain)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves tenant configs based on filter criteria
func (r *TenantConfigRepositoryImpl) ByFilter(ctx context.Context, filter models.TenantConfigFilter, orderBy string, limit, offset int) ([]*models.TenantConfig, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.TenantConfig{}), filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var items []*models.TenantConfig
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Count returns the number of tenant configs matching the filter
func (r *TenantConfigRepositoryImpl) Count(ctx context.Context, filter models.TenantConfigFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.TenantConfig{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any tenant config matching the filter exists
func (r *TenantConfigRepositoryImpl) Exists(ctx context.Context, filter models.TenantConfigFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
