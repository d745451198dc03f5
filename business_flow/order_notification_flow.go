package businessflow

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/amirphl/order-relay/app/dto"
	"github.com/amirphl/order-relay/app/services"
	"github.com/amirphl/order-relay/models"
	"github.com/amirphl/order-relay/repository"
	"github.com/amirphl/order-relay/utils"
	"github.com/google/uuid"
)

// OrderNotificationFlow turns one order webhook into at most one customer notification
type OrderNotificationFlow interface {
	HandleOrderWebhook(ctx context.Context, req *dto.OrderWebhookRequest, metadata *ClientMetadata) *dto.OrderWebhookResult
}

type OrderNotificationFlowImpl struct {
	tenantRepo    repository.TenantConfigRepository
	recordRepo    repository.NotificationRecordRepository
	messaging     services.MessagingService
	cipher        services.CredentialCipher
	claims        OrderClaimer
	defaultPrefix string
}

func NewOrderNotificationFlow(
	tenantRepo repository.TenantConfigRepository,
	recordRepo repository.NotificationRecordRepository,
	messaging services.MessagingService,
	cipher services.CredentialCipher,
	claims OrderClaimer,
	defaultPrefix string,
) OrderNotificationFlow {
	if claims == nil {
		claims = NewNoopOrderClaimer()
	}
	if cipher == nil {
		cipher = services.NewCredentialCipher("")
	}
	if defaultPrefix == "" {
		defaultPrefix = utils.DefaultCountryPrefix
	}
	return &OrderNotificationFlowImpl{
		tenantRepo:    tenantRepo,
		recordRepo:    recordRepo,
		messaging:     messaging,
		cipher:        cipher,
		claims:        claims,
		defaultPrefix: defaultPrefix,
	}
}

// HandleOrderWebhook runs the intake gates in order: payload, tenant, history,
// phone. Only an order passing all of them is dispatched and recorded.
func (f *OrderNotificationFlowImpl) HandleOrderWebhook(ctx context.Context, req *dto.OrderWebhookRequest, metadata *ClientMetadata) (result *dto.OrderWebhookResult) {
	logger := utils.LoggerFromContext(ctx)
	if metadata != nil {
		logger = logger.With(slog.String("ip", metadata.IPAddress))
	}
	if req.Topic != "" {
		logger = logger.With(slog.String("topic", req.Topic))
	}
	if req.WebhookID != "" {
		logger = logger.With(slog.String("webhook_id", req.WebhookID))
	}

	defer func() {
		webhookResults.WithLabelValues(result.Status, result.Message).Inc()
	}()

	var event dto.OrderEvent
	if err := json.Unmarshal(req.Body, &event); err != nil {
		logger.WarnContext(ctx, "order webhook rejected", slog.String("reason", dto.WebhookMessageInvalidPayload), slog.Any("err", err))
		return errorResult(dto.WebhookMessageInvalidPayload, "")
	}
	if event.ID.Empty() {
		logger.WarnContext(ctx, "order webhook rejected", slog.String("reason", dto.WebhookMessageMissingOrderID))
		return errorResult(dto.WebhookMessageMissingOrderID, "")
	}
	orderID := event.ID.String()

	shop := resolveShopDomain(&event, req)
	logger = logger.With(slog.String("shop", shop), slog.String("order_id", orderID))

	tenant, err := f.lookupTenant(ctx, shop)
	if err != nil {
		switch {
		case IsTenantUnconfigured(err):
			logger.WarnContext(ctx, "order webhook rejected", slog.String("reason", dto.WebhookMessageTenantUnconfigured))
			return errorResult(dto.WebhookMessageTenantUnconfigured, "")
		case IsTenantInactive(err):
			logger.InfoContext(ctx, "order webhook rejected", slog.String("reason", dto.WebhookMessageTenantInactive))
			return errorResult(dto.WebhookMessageTenantInactive, "")
		default:
			logger.ErrorContext(ctx, "tenant lookup failed", slog.Any("err", err))
			return errorResult(dto.WebhookMessageStorageFailure, orderID)
		}
	}

	exists, err := f.recordRepo.ExistsForOrder(ctx, shop, orderID)
	if err != nil {
		logger.ErrorContext(ctx, "history lookup failed", slog.Any("err", err))
		return errorResult(dto.WebhookMessageStorageFailure, orderID)
	}
	if exists {
		logger.InfoContext(ctx, "order already notified")
		return &dto.OrderWebhookResult{Status: dto.WebhookStatusDuplicate, OrderID: orderID}
	}

	prefix := tenant.CountryPrefix
	if prefix == "" {
		prefix = f.defaultPrefix
	}
	phone := NormalizePhone(orderPhone(&event), prefix)
	if phone == "" {
		logger.WarnContext(ctx, "order webhook rejected", slog.String("reason", dto.WebhookMessageMissingPhone))
		return errorResult(dto.WebhookMessageMissingPhone, orderID)
	}

	text := FormatOrderMessage(&event)

	claimed, err := f.claims.Claim(ctx, shop, orderID)
	if err != nil {
		// without redis only the history unique index detects concurrent duplicates
		logger.WarnContext(ctx, "order claim unavailable", slog.Any("err", err))
		claimed = true
	}
	if !claimed {
		logger.InfoContext(ctx, "order notification already in flight")
		return &dto.OrderWebhookResult{Status: dto.WebhookStatusDuplicate, OrderID: orderID}
	}

	outcome := f.dispatch(ctx, tenant, phone, text)

	record := &models.NotificationRecord{
		UUID:        uuid.New(),
		ShopDomain:  shop,
		OrderID:     orderID,
		Phone:       phone,
		MessageBody: text,
		Status:      models.NotificationStatusFailed,
		CreatedAt:   utils.UTCNow(),
	}
	if outcome.Success {
		record.Status = models.NotificationStatusSent
	}
	if outcome.ProviderResponse != "" {
		record.ProviderResponse = utils.ToPtr(outcome.ProviderResponse)
	}
	if outcome.Reason != "" {
		record.FailureReason = utils.ToPtr(outcome.Reason)
	}

	if err := f.recordRepo.Save(ctx, record); err != nil {
		if repository.IsDuplicateKey(err) {
			logger.WarnContext(ctx, "concurrent delivery recorded first", slog.Bool("dispatched", outcome.Success))
			return &dto.OrderWebhookResult{Status: dto.WebhookStatusDuplicate, OrderID: orderID}
		}
		if outcome.Success {
			// claim stays held until its TTL expires
			historyWriteFailures.Inc()
			logger.ErrorContext(ctx, "customer notified but history record lost",
				slog.String("event", "history_write_lost"),
				slog.String("phone", phone),
				slog.Any("err", err),
			)
			return &dto.OrderWebhookResult{
				Status:     dto.WebhookStatusError,
				OrderID:    orderID,
				Message:    dto.WebhookMessageStorageFailure,
				Dispatched: true,
			}
		}
		logger.ErrorContext(ctx, "failed to record dispatch failure", slog.String("reason", outcome.Reason), slog.Any("err", err))
		f.release(ctx, logger, shop, orderID)
		return errorResult(dto.WebhookMessageStorageFailure, orderID)
	}
	f.release(ctx, logger, shop, orderID)

	if !outcome.Success {
		logger.WarnContext(ctx, "order notification failed",
			slog.String("phone", phone),
			slog.String("reason", outcome.Reason),
			slog.Int("provider_status", outcome.StatusCode),
		)
		return &dto.OrderWebhookResult{
			Status:  dto.WebhookStatusFailed,
			OrderID: orderID,
			Message: dto.WebhookMessageDispatchFailure,
		}
	}

	logger.InfoContext(ctx, "order notification sent",
		slog.String("phone", phone),
		slog.Duration("latency", outcome.Latency),
	)
	return &dto.OrderWebhookResult{Status: dto.WebhookStatusSent, OrderID: orderID}
}

func (f *OrderNotificationFlowImpl) lookupTenant(ctx context.Context, shop string) (*models.TenantConfig, error) {
	if shop == "" {
		return nil, ErrTenantUnconfigured
	}
	tenant, err := f.tenantRepo.ByShopDomain(ctx, shop)
	if err != nil {
		return nil, NewBusinessError("TENANT_LOOKUP_FAILED", "Failed to load tenant configuration", err)
	}
	if tenant == nil {
		return nil, ErrTenantUnconfigured
	}
	if !tenant.Active() {
		return nil, ErrTenantInactive
	}
	return tenant, nil
}

func (f *OrderNotificationFlowImpl) dispatch(ctx context.Context, tenant *models.TenantConfig, phone, text string) services.DispatchOutcome {
	token, err := f.cipher.Open(tenant.AuthToken)
	if err != nil {
		return services.DispatchOutcome{Reason: "tenant credentials cannot be read"}
	}
	return f.messaging.Send(ctx, phone, text, services.MessagingCredentials{
		InstanceID: tenant.InstanceID,
		Token:      token,
	})
}

func (f *OrderNotificationFlowImpl) release(ctx context.Context, logger *slog.Logger, shop, orderID string) {
	if err := f.claims.Release(ctx, shop, orderID); err != nil {
		logger.WarnContext(ctx, "failed to release order claim", slog.Any("err", err))
	}
}

// resolveShopDomain prefers the payload, then the platform header, then the query string
func resolveShopDomain(event *dto.OrderEvent, req *dto.OrderWebhookRequest) string {
	for _, candidate := range []string{event.SourceName, req.ShopHeader, req.ShopQuery} {
		if c := strings.TrimSpace(candidate); c != "" {
			return c
		}
	}
	return ""
}

func errorResult(message, orderID string) *dto.OrderWebhookResult {
	return &dto.OrderWebhookResult{Status: dto.WebhookStatusError, Message: message, OrderID: orderID}
}
