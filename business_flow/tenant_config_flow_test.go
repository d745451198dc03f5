package businessflow_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amirphl/order-relay/app/dto"
	"github.com/amirphl/order-relay/app/services"
	businessflow "github.com/amirphl/order-relay/business_flow"
	"github.com/amirphl/order-relay/repository"
	testingutil "github.com/amirphl/order-relay/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantConfigFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		tenantRepo := repository.NewTenantConfigRepository(testDB.DB)
		cipher := services.NewCredentialCipher("tenant-flow-key")
		flow := businessflow.NewTenantConfigFlow(tenantRepo, cipher)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		t.Run("UpsertSealsToken", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			out, err := flow.Upsert(ctx, &dto.UpsertTenantConfigRequest{
				ShopDomain: " store-a ",
				InstanceID: "instance1",
				Token:      "token1",
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, "store-a", out.ShopDomain)
			assert.True(t, out.IsActive)
			assert.True(t, out.TokenSet)

			stored, err := tenantRepo.ByShopDomain(ctx, "store-a")
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.True(t, strings.HasPrefix(stored.AuthToken, services.SealedCredentialPrefix))
			opened, err := cipher.Open(stored.AuthToken)
			require.NoError(t, err)
			assert.Equal(t, "token1", opened)
		})

		t.Run("UpsertReplacesAndHonoursActiveFlag", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			_, err := flow.Upsert(ctx, &dto.UpsertTenantConfigRequest{ShopDomain: "store-a", InstanceID: "instance1", Token: "token1"}, metadata)
			require.NoError(t, err)

			out, err := flow.Upsert(ctx, &dto.UpsertTenantConfigRequest{
				ShopDomain:    "store-a",
				InstanceID:    "instance2",
				Token:         "token2",
				Active:        "off",
				CountryPrefix: "33",
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, "instance2", out.InstanceID)
			assert.False(t, out.IsActive)
			assert.Equal(t, "33", out.CountryPrefix)

			list, err := flow.List(ctx, false)
			require.NoError(t, err)
			assert.Equal(t, int64(1), list.Total)
		})

		t.Run("UpsertValidation", func(t *testing.T) {
			cases := []struct {
				name string
				req  dto.UpsertTenantConfigRequest
				is   func(error) bool
			}{
				{"MissingShop", dto.UpsertTenantConfigRequest{InstanceID: "i", Token: "t"}, businessflow.IsShopDomainRequired},
				{"MissingInstance", dto.UpsertTenantConfigRequest{ShopDomain: "s", Token: "t"}, businessflow.IsInstanceIDRequired},
				{"MissingToken", dto.UpsertTenantConfigRequest{ShopDomain: "s", InstanceID: "i"}, businessflow.IsAuthTokenRequired},
				{"BadPrefix", dto.UpsertTenantConfigRequest{ShopDomain: "s", InstanceID: "i", Token: "t", CountryPrefix: "+34"}, businessflow.IsInvalidCountryCode},
				{"BadActive", dto.UpsertTenantConfigRequest{ShopDomain: "s", InstanceID: "i", Token: "t", Active: "maybe"}, businessflow.IsInvalidActiveFlag},
			}
			for _, tc := range cases {
				t.Run(tc.name, func(t *testing.T) {
					_, err := flow.Upsert(ctx, &tc.req, metadata)
					require.Error(t, err)
					assert.True(t, tc.is(err), err.Error())
				})
			}
		})

		t.Run("SetActive", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			fixtures := testingutil.NewTestFixtures(testDB)
			_, err := fixtures.CreateTestTenant("store-a", true)
			require.NoError(t, err)

			out, err := flow.SetActive(ctx, &dto.SetTenantActiveRequest{ShopDomain: "store-a", State: "0"}, metadata)
			require.NoError(t, err)
			assert.False(t, out.IsActive)

			out, err = flow.SetActive(ctx, &dto.SetTenantActiveRequest{ShopDomain: "store-a", State: "1"}, metadata)
			require.NoError(t, err)
			assert.True(t, out.IsActive)

			_, err = flow.SetActive(ctx, &dto.SetTenantActiveRequest{ShopDomain: "store-a", State: "2"}, metadata)
			assert.True(t, businessflow.IsInvalidActiveFlag(err))

			_, err = flow.SetActive(ctx, &dto.SetTenantActiveRequest{State: "1"}, metadata)
			assert.True(t, businessflow.IsShopDomainRequired(err))

			_, err = flow.SetActive(ctx, &dto.SetTenantActiveRequest{ShopDomain: "store-x", State: "1"}, metadata)
			assert.True(t, businessflow.IsTenantNotFound(err))
		})

		t.Run("UpsertWithoutActiveKeepsDeactivatedTenant", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			_, err := flow.Upsert(ctx, &dto.UpsertTenantConfigRequest{ShopDomain: "store-a", InstanceID: "instance1", Token: "token1"}, metadata)
			require.NoError(t, err)
			_, err = flow.SetActive(ctx, &dto.SetTenantActiveRequest{ShopDomain: "store-a", State: "0"}, metadata)
			require.NoError(t, err)

			out, err := flow.Upsert(ctx, &dto.UpsertTenantConfigRequest{ShopDomain: "store-a", InstanceID: "instance2", Token: "token2"}, metadata)
			require.NoError(t, err)
			assert.Equal(t, "instance2", out.InstanceID)
			assert.False(t, out.IsActive)

			stored, err := tenantRepo.ByShopDomain(ctx, "store-a")
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.False(t, stored.Active())
		})

		t.Run("UpsertAcceptsYesNo", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			out, err := flow.Upsert(ctx, &dto.UpsertTenantConfigRequest{ShopDomain: "store-a", InstanceID: "instance1", Token: "token1", Active: "no"}, metadata)
			require.NoError(t, err)
			assert.False(t, out.IsActive)

			out, err = flow.Upsert(ctx, &dto.UpsertTenantConfigRequest{ShopDomain: "store-a", InstanceID: "instance1", Token: "token1", Active: "YES"}, metadata)
			require.NoError(t, err)
			assert.True(t, out.IsActive)
		})

		t.Run("GetAndListActive", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			fixtures := testingutil.NewTestFixtures(testDB)
			_, err := fixtures.CreateTestTenant("store-b", false)
			require.NoError(t, err)
			_, err = fixtures.CreateTestTenant("store-a", true)
			require.NoError(t, err)

			got, err := flow.Get(ctx, "store-b")
			require.NoError(t, err)
			assert.False(t, got.IsActive)

			_, err = flow.Get(ctx, "store-z")
			assert.True(t, businessflow.IsTenantNotFound(err))

			all, err := flow.List(ctx, false)
			require.NoError(t, err)
			require.Len(t, all.Items, 2)
			assert.Equal(t, "store-a", all.Items[0].ShopDomain)

			active, err := flow.List(ctx, true)
			require.NoError(t, err)
			require.Len(t, active.Items, 1)
			assert.Equal(t, "store-a", active.Items[0].ShopDomain)
		})

		t.Run("SeedFromFile", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			path := filepath.Join(t.TempDir(), "tenants.yaml")
			seed := `tenants:
  - shop: store-a
    instance_id: instance1
    token: token1
  - shop: store-b
    instance_id: instance2
    token: token2
    active: false
    country_prefix: "33"
`
			require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

			applied, err := flow.SeedFromFile(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, 2, applied)

			b, err := flow.Get(ctx, "store-b")
			require.NoError(t, err)
			assert.False(t, b.IsActive)
			assert.Equal(t, "33", b.CountryPrefix)

			again, err := flow.SeedFromFile(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, 2, again)
			list, err := flow.List(ctx, false)
			require.NoError(t, err)
			assert.Equal(t, int64(2), list.Total)
		})

		t.Run("SeedFromFileKeepsDeactivatedTenant", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			path := filepath.Join(t.TempDir(), "tenants.yaml")
			seed := `tenants:
  - shop: store-a
    instance_id: instance1
    token: token1
`
			require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

			_, err := flow.SeedFromFile(ctx, path)
			require.NoError(t, err)
			_, err = flow.SetActive(ctx, &dto.SetTenantActiveRequest{ShopDomain: "store-a", State: "0"}, metadata)
			require.NoError(t, err)

			applied, err := flow.SeedFromFile(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, 1, applied)

			got, err := flow.Get(ctx, "store-a")
			require.NoError(t, err)
			assert.False(t, got.IsActive, "restart seeding must not reactivate a store")
		})

		t.Run("SeedFromFileRejectsInvalidEntries", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			path := filepath.Join(t.TempDir(), "tenants.yaml")
			seed := `tenants:
  - shop: store-a
    instance_id: instance1
    token: token1
  - shop: store-b
    token: token2
`
			require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

			applied, err := flow.SeedFromFile(ctx, path)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidSeedFile(err))
			assert.Zero(t, applied)

			list, err := flow.List(ctx, false)
			require.NoError(t, err)
			assert.Zero(t, list.Total, "nothing is applied when any entry is invalid")
		})

		t.Run("SeedFromFileMissing", func(t *testing.T) {
			_, err := flow.SeedFromFile(ctx, filepath.Join(t.TempDir(), "absent.yaml"))
			require.Error(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}
