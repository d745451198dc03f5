package repository_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/amirphl/order-relay/models"
	"github.com/amirphl/order-relay/repository"
	testingutil "github.com/amirphl/order-relay/testing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNotificationRecordRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewNotificationRecordRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

		t.Run("ExistsForOrder", func(t *testing.T) {
			_, err := fixtures.CreateTestNotification("store-a", "1001", models.NotificationStatusSent, base)
			require.NoError(t, err)

			exists, err := repo.ExistsForOrder(ctx, "store-a", "1001")
			require.NoError(t, err)
			assert.True(t, exists)

			exists, err = repo.ExistsForOrder(ctx, "store-b", "1001")
			require.NoError(t, err)
			assert.False(t, exists)
		})

		t.Run("SaveDuplicateOrderIsRejected", func(t *testing.T) {
			record := &models.NotificationRecord{
				UUID:        uuid.New(),
				ShopDomain:  "store-a",
				OrderID:     "1001",
				Phone:       "34600123456",
				MessageBody: "again",
				Status:      models.NotificationStatusSent,
				CreatedAt:   base.Add(time.Minute),
			}
			err := repo.Save(ctx, record)
			require.Error(t, err)
			assert.True(t, repository.IsDuplicateKey(err))
		})

		t.Run("ListByShopNewestFirst", func(t *testing.T) {
			for i, orderID := range []string{"2001", "2002", "2003"} {
				_, err := fixtures.CreateTestNotification("store-list", orderID, models.NotificationStatusSent, base.Add(time.Duration(i)*time.Hour))
				require.NoError(t, err)
			}
			_, err := fixtures.CreateTestNotification("store-other", "2004", models.NotificationStatusFailed, base)
			require.NoError(t, err)

			rows, err := repo.ListByShop(ctx, "store-list", 10, 0)
			require.NoError(t, err)
			require.Len(t, rows, 3)
			assert.Equal(t, "2003", rows[0].OrderID)
			assert.Equal(t, "2002", rows[1].OrderID)
			assert.Equal(t, "2001", rows[2].OrderID)

			page, err := repo.ListByShop(ctx, "store-list", 1, 1)
			require.NoError(t, err)
			require.Len(t, page, 1)
			assert.Equal(t, "2002", page[0].OrderID)
		})

		t.Run("CountByStatus", func(t *testing.T) {
			failed := models.NotificationStatusFailed
			count, err := repo.Count(ctx, models.NotificationRecordFilter{Status: &failed})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, repository.IsDuplicateKey(nil))
	assert.True(t, repository.IsDuplicateKey(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.False(t, repository.IsDuplicateKey(assert.AnError))
}
