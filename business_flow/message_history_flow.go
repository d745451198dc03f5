package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/order-relay/app/dto"
	"github.com/amirphl/order-relay/models"
	"github.com/amirphl/order-relay/repository"
	"github.com/amirphl/order-relay/utils"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MessageHistoryFlow serves the notification history of a store, newest first
type MessageHistoryFlow interface {
	ListHistory(ctx context.Context, req *dto.ListMessageHistoryRequest) (*dto.ListMessageHistoryResponse, error)
	Panel(ctx context.Context, shopDomain string) (*dto.PanelResponse, error)
	ExportHistory(ctx context.Context, shopDomain string) (*dto.MessageHistoryExport, error)
}

type MessageHistoryFlowImpl struct {
	tenantRepo repository.TenantConfigRepository
	recordRepo repository.NotificationRecordRepository
}

func NewMessageHistoryFlow(tenantRepo repository.TenantConfigRepository, recordRepo repository.NotificationRecordRepository) MessageHistoryFlow {
	return &MessageHistoryFlowImpl{tenantRepo: tenantRepo, recordRepo: recordRepo}
}

func (f *MessageHistoryFlowImpl) ListHistory(ctx context.Context, req *dto.ListMessageHistoryRequest) (result *dto.ListMessageHistoryResponse, err error) {
	defer func() {
		if err != nil {
			err = NewBusinessError("LIST_MESSAGE_HISTORY_FAILED", "Failed to list message history", err)
		}
	}()

	tenant, err := f.knownTenant(ctx, req.ShopDomain)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return nil, ErrInvalidPage
	}
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = utils.DefaultHistoryPageSize
	}
	if pageSize < 1 || pageSize > utils.MaxHistoryPageSize {
		return nil, ErrInvalidPageSize
	}

	total, err := f.recordRepo.Count(ctx, models.NotificationRecordFilter{ShopDomain: &tenant.ShopDomain})
	if err != nil {
		return nil, err
	}
	rows, err := f.recordRepo.ListByShop(ctx, tenant.ShopDomain, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &dto.ListMessageHistoryResponse{
		ShopDomain: tenant.ShopDomain,
		Items:      toNotificationRecordDTOs(rows),
		Pagination: dto.PaginationInfo{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
	}, nil
}

// Panel returns the state of a store together with its latest notifications
func (f *MessageHistoryFlowImpl) Panel(ctx context.Context, shopDomain string) (result *dto.PanelResponse, err error) {
	defer func() {
		if err != nil {
			err = NewBusinessError("PANEL_FAILED", "Failed to load store panel", err)
		}
	}()

	tenant, err := f.knownTenant(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	rows, err := f.recordRepo.ListByShop(ctx, tenant.ShopDomain, utils.PanelHistoryLimit, 0)
	if err != nil {
		return nil, err
	}
	return &dto.PanelResponse{
		ShopDomain: tenant.ShopDomain,
		Active:     tenant.Active(),
		InstanceID: tenant.InstanceID,
		Messages:   toNotificationRecordDTOs(rows),
	}, nil
}

// ExportHistory renders the full history of a store as an xlsx workbook
func (f *MessageHistoryFlowImpl) ExportHistory(ctx context.Context, shopDomain string) (*dto.MessageHistoryExport, error) {
	tenant, err := f.knownTenant(ctx, shopDomain)
	if err != nil {
		return nil, NewBusinessError("EXPORT_MESSAGE_HISTORY_FAILED", "Failed to export message history", err)
	}

	rows, err := f.recordRepo.ListByShop(ctx, tenant.ShopDomain, 0, 0)
	if err != nil {
		return nil, NewBusinessError("FETCH_MESSAGE_HISTORY_FAILED", "Failed to fetch message history", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := sanitizeSheetName(tenant.ShopDomain)
	if err := xl.SetSheetName(xl.GetSheetName(0), sheet); err != nil {
		return nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to name worksheet", err)
	}

	header := []string{"created_at", "order_id", "phone", "status", "failure_reason", "provider_response", "message"}
	if err := xl.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write header row", err)
	}

	for i, r := range rows {
		record := []string{
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.OrderID,
			r.Phone,
			string(r.Status),
			utils.Deref(r.FailureReason),
			utils.Deref(r.ProviderResponse),
			r.MessageBody,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := xl.SetSheetRow(sheet, cellRef, &record); err != nil {
			return nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write history row", err)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return &dto.MessageHistoryExport{
		Filename:    fmt.Sprintf("messages_%s.xlsx", strings.NewReplacer(".", "_", "/", "_").Replace(tenant.ShopDomain)),
		ContentType: xlsxContentType,
		Content:     buf.Bytes(),
	}, nil
}

func (f *MessageHistoryFlowImpl) knownTenant(ctx context.Context, shopDomain string) (*models.TenantConfig, error) {
	shop := strings.TrimSpace(shopDomain)
	if shop == "" {
		return nil, ErrShopDomainRequired
	}
	tenant, err := f.tenantRepo.ByShopDomain(ctx, shop)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}
	return tenant, nil
}

func sanitizeSheetName(name string) string {
	// Excel sheet names cannot contain: : \ / ? * [ ] and must be <= 31 chars
	replacer := strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")
	safe := strings.TrimSpace(replacer.Replace(name))
	if len(safe) > 31 {
		safe = safe[:31]
	}
	if safe == "" {
		return "Sheet1"
	}
	return safe
}
