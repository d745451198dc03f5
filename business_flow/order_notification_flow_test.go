package businessflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/amirphl/order-relay/app/dto"
	"github.com/amirphl/order-relay/app/services"
	businessflow "github.com/amirphl/order-relay/business_flow"
	"github.com/amirphl/order-relay/models"
	"github.com/amirphl/order-relay/repository"
	testingutil "github.com/amirphl/order-relay/testing"
	"github.com/amirphl/order-relay/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storeAOrder = `{
	"id": 1001,
	"source_name": "store-a",
	"customer": {"first_name": "Ana", "last_name": "Pérez"},
	"shipping_address": {"name": "Ana Pérez", "phone": "+34 600 123 456", "address1": "Calle Mayor 1", "city": "Madrid", "zip": "28013", "country": "Spain"},
	"line_items": [{"title": "Camiseta", "quantity": 2}]
}`

// recordingMessaging captures the credentials every send was made with
type recordingMessaging struct {
	mu    sync.Mutex
	creds []services.MessagingCredentials
}

func (r *recordingMessaging) Provider() string { return "recording" }

func (r *recordingMessaging) Send(_ context.Context, _, _ string, creds services.MessagingCredentials) services.DispatchOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds = append(r.creds, creds)
	return services.DispatchOutcome{Success: true, StatusCode: 200, ProviderResponse: "ok"}
}

type fixedClaimer struct {
	claimed  bool
	err      error
	released int
}

func (c *fixedClaimer) Claim(context.Context, string, string) (bool, error) { return c.claimed, c.err }

func (c *fixedClaimer) Release(context.Context, string, string) error {
	c.released++
	return nil
}

// failingSaveRepo fails every append with saveErr
type failingSaveRepo struct {
	repository.NotificationRecordRepository
	saveErr error
}

func (r *failingSaveRepo) Save(context.Context, *models.NotificationRecord) error { return r.saveErr }

// staleHistoryRepo never sees existing rows, as a concurrent delivery would
type staleHistoryRepo struct {
	repository.NotificationRecordRepository
}

func (r *staleHistoryRepo) ExistsForOrder(context.Context, string, string) (bool, error) {
	return false, nil
}

type flowEnv struct {
	tenantRepo repository.TenantConfigRepository
	recordRepo repository.NotificationRecordRepository
	fixtures   *testingutil.TestFixtures
	messaging  *services.MockMessagingService
}

func (e *flowEnv) flow(recordRepo repository.NotificationRecordRepository, claimer businessflow.OrderClaimer) businessflow.OrderNotificationFlow {
	if recordRepo == nil {
		recordRepo = e.recordRepo
	}
	return businessflow.NewOrderNotificationFlow(e.tenantRepo, recordRepo, e.messaging, nil, claimer, "34")
}

func (e *flowEnv) historyCount(t *testing.T, shop string) int64 {
	count, err := e.recordRepo.Count(context.Background(), models.NotificationRecordFilter{ShopDomain: &shop})
	require.NoError(t, err)
	return count
}

func webhook(body string) *dto.OrderWebhookRequest {
	return &dto.OrderWebhookRequest{Body: []byte(body)}
}

func TestOrderNotificationFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		env := &flowEnv{
			tenantRepo: repository.NewTenantConfigRepository(testDB.DB),
			recordRepo: repository.NewNotificationRecordRepository(testDB.DB),
			fixtures:   testingutil.NewTestFixtures(testDB),
			messaging:  services.NewMockMessagingService(),
		}
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		reset := func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			env.messaging.ClearSentMessages()
			env.messaging.FailWith("")
		}

		t.Run("SentThenDuplicate", func(t *testing.T) {
			reset(t)
			tenant, err := env.fixtures.CreateTestTenant("store-a", true)
			require.NoError(t, err)
			flow := env.flow(nil, nil)

			result := flow.HandleOrderWebhook(ctx, webhook(storeAOrder), metadata)
			assert.Equal(t, &dto.OrderWebhookResult{Status: dto.WebhookStatusSent, OrderID: "1001"}, result)

			sent := env.messaging.SentMessages()
			require.Len(t, sent, 1)
			assert.Equal(t, "34600123456", sent[0].Phone)
			assert.Equal(t, tenant.InstanceID, sent[0].InstanceID)
			assert.Contains(t, sent[0].Text, "1001")
			assert.Contains(t, sent[0].Text, "• Camiseta x2")

			rows, err := env.recordRepo.ListByShop(ctx, "store-a", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, models.NotificationStatusSent, rows[0].Status)
			assert.Equal(t, "34600123456", rows[0].Phone)
			assert.Equal(t, sent[0].Text, rows[0].MessageBody)
			assert.Nil(t, rows[0].FailureReason)

			replay := flow.HandleOrderWebhook(ctx, webhook(storeAOrder), metadata)
			assert.Equal(t, &dto.OrderWebhookResult{Status: dto.WebhookStatusDuplicate, OrderID: "1001"}, replay)
			assert.Len(t, env.messaging.SentMessages(), 1)
			assert.Equal(t, int64(1), env.historyCount(t, "store-a"))
		})

		t.Run("StringOrderIDMatchesNumericReplay", func(t *testing.T) {
			reset(t)
			_, err := env.fixtures.CreateTestTenant("store-a", true)
			require.NoError(t, err)
			flow := env.flow(nil, nil)

			first := flow.HandleOrderWebhook(ctx, webhook(`{"id":"2002","source_name":"store-a","customer":{"phone":"600123456"}}`), nil)
			assert.Equal(t, dto.WebhookStatusSent, first.Status)
			second := flow.HandleOrderWebhook(ctx, webhook(`{"id":2002,"source_name":"store-a","customer":{"phone":"600123456"}}`), nil)
			assert.Equal(t, dto.WebhookStatusDuplicate, second.Status)
			assert.Len(t, env.messaging.SentMessages(), 1)
		})

		t.Run("TenantUnconfigured", func(t *testing.T) {
			reset(t)
			result := env.flow(nil, nil).HandleOrderWebhook(ctx, webhook(`{"id":1001,"source_name":"store-b","customer":{"phone":"600123456"}}`), metadata)
			assert.Equal(t, &dto.OrderWebhookResult{Status: dto.WebhookStatusError, Message: dto.WebhookMessageTenantUnconfigured}, result)
			assert.Empty(t, env.messaging.SentMessages())
			assert.Equal(t, int64(0), env.historyCount(t, "store-b"))
		})

		t.Run("TenantUnresolvable", func(t *testing.T) {
			reset(t)
			result := env.flow(nil, nil).HandleOrderWebhook(ctx, webhook(`{"id":1001,"customer":{"phone":"600123456"}}`), metadata)
			assert.Equal(t, dto.WebhookMessageTenantUnconfigured, result.Message)
		})

		t.Run("TenantInactive", func(t *testing.T) {
			reset(t)
			_, err := env.fixtures.CreateTestTenant("store-a", false)
			require.NoError(t, err)

			result := env.flow(nil, nil).HandleOrderWebhook(ctx, webhook(storeAOrder), metadata)
			assert.Equal(t, &dto.OrderWebhookResult{Status: dto.WebhookStatusError, Message: dto.WebhookMessageTenantInactive}, result)
			assert.Empty(t, env.messaging.SentMessages())
			assert.Equal(t, int64(0), env.historyCount(t, "store-a"))
		})

		t.Run("InvalidPayload", func(t *testing.T) {
			reset(t)
			for _, body := range []string{"not json", `{"id": {"nested": true}}`, ""} {
				result := env.flow(nil, nil).HandleOrderWebhook(ctx, webhook(body), metadata)
				assert.Equal(t, &dto.OrderWebhookResult{Status: dto.WebhookStatusError, Message: dto.WebhookMessageInvalidPayload}, result, body)
			}
		})

		t.Run("MissingOrderID", func(t *testing.T) {
			reset(t)
			_, err := env.fixtures.CreateTestTenant("store-a", true)
			require.NoError(t, err)
			for _, body := range []string{
				`{"source_name":"store-a"}`,
				`{"id":0,"source_name":"store-a"}`,
				`{"id":"","source_name":"store-a"}`,
				`{"id":null,"source_name":"store-a"}`,
			} {
				result := env.flow(nil, nil).HandleOrderWebhook(ctx, webhook(body), metadata)
				assert.Equal(t, &dto.OrderWebhookResult{Status: dto.WebhookStatusError, Message: dto.WebhookMessageMissingOrderID}, result, body)
			}
			assert.Empty(t, env.messaging.SentMessages())
		})

		t.Run("MissingPhone", func(t *testing.T) {
			reset(t)
			_, err := env.fixtures.CreateTestTenant("store-a", true)
			require.NoError(t, err)

			result := env.flow(nil, nil).HandleOrderWebhook(ctx, webhook(`{"id":3003,"source_name":"store-a","customer":{"phone":"n/a"}}`), metadata)
			assert.Equal(t, &dto.OrderWebhookResult{Status: dto.WebhookStatusError, Message: dto.WebhookMessageMissingPhone, OrderID: "3003"}, result)
			assert.Empty(t, env.messaging.SentMessages())
			assert.Equal(t, int64(0), env.historyCount(t, "store-a"))
		})

		t.Run("DispatchFailureIsRecorded", func(t *testing.T) {
			reset(t)
			_, err := env.fixtures.CreateTestTenant("store-a", true)
			require.NoError(t, err)
			env.messaging.FailWith("provider responded with status 502")

			result := env.flow(nil, nil).HandleOrderWebhook(ctx, webhook(storeAOrder), metadata)
			assert.Equal(t, &dto.OrderWebhookResult{Status: dto.WebhookStatusFailed, OrderID: "1001", Message: dto.WebhookMessageDispatchFailure}, result)

			rows, err := env.recordRepo.ListByShop(ctx, "store-a", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, models.NotificationStatusFailed, rows[0].Status)
			assert.Equal(t, "provider responded with status 502", utils.Deref(rows[0].FailureReason))

			// a recorded failure blocks later deliveries of the same order
			env.messaging.FailWith("")
			replay := env.flow(nil, nil).HandleOrderWebhook(ctx, webhook(storeAOrder), metadata)
			assert.Equal(t, dto.WebhookStatusDuplicate, replay.Status)
			assert.Len(t, env.messaging.SentMessages(), 1)
		})

		t.Run("ConcurrentDeliveryReportedAsDuplicate", func(t *testing.T) {
			reset(t)
			_, err := env.fixtures.CreateTestTenant("store-a", true)
			require.NoError(t, err)
			_, err = env.fixtures.CreateTestNotification("store-a", "1001", models.NotificationStatusSent, utils.UTCNow())
			require.NoError(t, err)

			flow := env.flow(&staleHistoryRepo{NotificationRecordRepository: env.recordRepo}, nil)
			result := flow.HandleOrderWebhook(ctx, webhook(storeAOrder), metadata)
			assert.Equal(t, &dto.OrderWebhookResult{Status: dto.WebhookStatusDuplicate, OrderID: "1001"}, result)
			assert.Equal(t, int64(1), env.historyCount(t, "store-a"))
		})

		t.Run("StorageFailureAfterSend", func(t *testing.T) {
			reset(t)
			_, err := env.fixtures.CreateTestTenant("store-a", true)
			require.NoError(t, err)
			claimer := &fixedClaimer{claimed: true}

			flow := env.flow(&failingSaveRepo{NotificationRecordRepository: env.recordRepo, saveErr: errors.New("disk full")}, claimer)
			result := flow.HandleOrderWebhook(ctx, webhook(storeAOrder), metadata)
			assert.Equal(t, &dto.OrderWebhookResult{
				Status:     dto.WebhookStatusError,
				OrderID:    "1001",
				Message:    dto.WebhookMessageStorageFailure,
				Dispatched: true,
			}, result)
			assert.Len(t, env.messaging.SentMessages(), 1)
			assert.Zero(t, claimer.released, "claim must outlive an unrecorded send")
		})

		t.Run("StorageFailureAfterFailedSend", func(t *testing.T) {
			reset(t)
			_, err := env.fixtures.CreateTestTenant("store-a", true)
			require.NoError(t, err)
			env.messaging.FailWith("provider request timed out")
			claimer := &fixedClaimer{claimed: true}

			flow := env.flow(&failingSaveRepo{NotificationRecordRepository: env.recordRepo, saveErr: errors.New("disk full")}, claimer)
			result := flow.HandleOrderWebhook(ctx, webhook(storeAOrder), metadata)
			assert.Equal(t, &dto.OrderWebhookResult{Status: dto.WebhookStatusError, OrderID: "1001", Message: dto.WebhookMessageStorageFailure}, result)
			assert.Equal(t, 1, claimer.released)
		})

		t.Run("HeldClaimIsDuplicate", func(t *testing.T) {
			reset(t)
			_, err := env.fixtures.CreateTestTenant("store-a", true)
			require.NoError(t, err)

			result := env.flow(nil, &fixedClaimer{claimed: false}).HandleOrderWebhook(ctx, webhook(storeAOrder), metadata)
			assert.Equal(t, &dto.OrderWebhookResult{Status: dto.WebhookStatusDuplicate, OrderID: "1001"}, result)
			assert.Empty(t, env.messaging.SentMessages())
			assert.Equal(t, int64(0), env.historyCount(t, "store-a"))
		})

		t.Run("ClaimStoreErrorStillDelivers", func(t *testing.T) {
			reset(t)
			_, err := env.fixtures.CreateTestTenant("store-a", true)
			require.NoError(t, err)

			result := env.flow(nil, &fixedClaimer{err: errors.New("redis down")}).HandleOrderWebhook(ctx, webhook(storeAOrder), metadata)
			assert.Equal(t, dto.WebhookStatusSent, result.Status)
		})

		t.Run("ShopResolvedFromHeaderThenQuery", func(t *testing.T) {
			reset(t)
			_, err := env.fixtures.CreateTestTenant("store-h", true)
			require.NoError(t, err)
			_, err = env.fixtures.CreateTestTenant("store-q", true)
			require.NoError(t, err)
			flow := env.flow(nil, nil)

			byHeader := flow.HandleOrderWebhook(ctx, &dto.OrderWebhookRequest{
				Body:       []byte(`{"id":10,"customer":{"phone":"600000010"}}`),
				ShopHeader: "store-h",
				ShopQuery:  "store-q",
			}, metadata)
			assert.Equal(t, dto.WebhookStatusSent, byHeader.Status)
			assert.Equal(t, int64(1), env.historyCount(t, "store-h"))

			byQuery := flow.HandleOrderWebhook(ctx, &dto.OrderWebhookRequest{
				Body:      []byte(`{"id":11,"customer":{"phone":"600000011"}}`),
				ShopQuery: "store-q",
			}, metadata)
			assert.Equal(t, dto.WebhookStatusSent, byQuery.Status)
			assert.Equal(t, int64(1), env.historyCount(t, "store-q"))
		})

		t.Run("TenantPrefixOverridesDefault", func(t *testing.T) {
			reset(t)
			tenant, err := env.fixtures.CreateTestTenant("store-fr", true)
			require.NoError(t, err)
			require.NoError(t, testDB.DB.Model(tenant).Update("country_prefix", "33").Error)

			result := env.flow(nil, nil).HandleOrderWebhook(ctx, webhook(`{"id":12,"source_name":"store-fr","customer":{"phone":"06 12 34 56 78"}}`), metadata)
			assert.Equal(t, dto.WebhookStatusSent, result.Status)
			sent := env.messaging.SentMessages()
			require.Len(t, sent, 1)
			assert.Equal(t, "33612345678", sent[0].Phone)
		})

		t.Run("UnreadableCredentialsRecordedAsFailed", func(t *testing.T) {
			reset(t)
			tenant, err := env.fixtures.CreateTestTenant("store-a", true)
			require.NoError(t, err)
			require.NoError(t, testDB.DB.Model(tenant).Update("auth_token", services.SealedCredentialPrefix+"garbage").Error)

			result := env.flow(nil, nil).HandleOrderWebhook(ctx, webhook(storeAOrder), metadata)
			assert.Equal(t, dto.WebhookStatusFailed, result.Status)
			assert.Empty(t, env.messaging.SentMessages())

			rows, err := env.recordRepo.ListByShop(ctx, "store-a", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "tenant credentials cannot be read", utils.Deref(rows[0].FailureReason))
		})

		t.Run("SealedCredentialsAreOpenedBeforeDispatch", func(t *testing.T) {
			reset(t)
			cipher := services.NewCredentialCipher("relay-key")
			tenantFlow := businessflow.NewTenantConfigFlow(env.tenantRepo, cipher)
			_, err := tenantFlow.Upsert(ctx, &dto.UpsertTenantConfigRequest{
				ShopDomain: "store-a",
				InstanceID: "instance1",
				Token:      "token1",
			}, metadata)
			require.NoError(t, err)

			recorder := &recordingMessaging{}
			flow := businessflow.NewOrderNotificationFlow(env.tenantRepo, env.recordRepo, recorder, cipher, nil, "34")
			result := flow.HandleOrderWebhook(ctx, webhook(storeAOrder), metadata)
			assert.Equal(t, dto.WebhookStatusSent, result.Status)
			require.Len(t, recorder.creds, 1)
			assert.Equal(t, services.MessagingCredentials{InstanceID: "instance1", Token: "token1"}, recorder.creds[0])
		})

		return nil
	})
	require.NoError(t, err)
}
