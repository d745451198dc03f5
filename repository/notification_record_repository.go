package repository

import (
	"context"

	"github.com/amirphl/order-relay/models"
	"gorm.io/gorm"
)

// NotificationRecordRepositoryImpl implements NotificationRecordRepository
type NotificationRecordRepositoryImpl struct {
	*BaseRepository[models.NotificationRecord, models.NotificationRecordFilter]
}

func NewNotificationRecordRepository(db *gorm.DB) NotificationRecordRepository {
	return &NotificationRecordRepositoryImpl{
		BaseRepository: NewBaseRepository[models.NotificationRecord, models.NotificationRecordFilter](db),
	}
}

func (r *NotificationRecordRepositoryImpl) ExistsForOrder(ctx context.Context, shopDomain, orderID string) (bool, error) {
	return r.Exists(ctx, models.NotificationRecordFilter{ShopDomain: &shopDomain, OrderID: &orderID})
}

// ListByShop returns the history of a store, newest first
func (r *NotificationRecordRepositoryImpl) ListByShop(ctx context.Context, shopDomain string, limit, offset int) ([]*models.NotificationRecord, error) {
	filter := models.NotificationRecordFilter{ShopDomain: &shopDomain}
	return r.ByFilter(ctx, filter, "created_at DESC, id DESC", limit, offset)
}

func (r *NotificationRecordRepositoryImpl) applyFilter(db *gorm.DB, f models.NotificationRecordFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.ShopDomain != nil {
		db = db.Where("shop_domain = ?", *f.ShopDomain)
	}
	if f.OrderID != nil {
		db = db.Where("order_id = ?", *f.OrderID)
	}
	if f.Phone != nil {
		db = db.Where("phone = ?", *f.Phone)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *NotificationRecordRepositoryImpl) ByFilter(ctx context.Context, filter models.NotificationRecordFilter, orderBy string, limit, offset int) ([]*models.NotificationRecord, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.NotificationRecord{}), filter)
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
	var rows []*models.NotificationRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *NotificationRecordRepositoryImpl) Count(ctx context.Context, filter models.NotificationRecordFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.NotificationRecord{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *NotificationRecordRepositoryImpl) Exists(ctx context.Context, filter models.NotificationRecordFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
