package brands

import (
	"context"
	"errors"
	"testing"

	"adops/internal/utils/dbtest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{}

func (brokenStore) BrandGrants(context.Context, string, string) ([]string, error) {
	return nil, errors.New("db down")
}

func TestResolver_AccessibleBrands(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryMembershipStore()
	store.SetGrants("u1", "acc1", "10", "20")
	resolver := NewResolver(store)

	t.Run("explicit grants", func(t *testing.T) {
		access := resolver.AccessibleBrands(ctx, "u1", "acc1")
		assert.False(t, access.Unrestricted)
		assert.Equal(t, []string{"10", "20"}, access.List())
	})

	t.Run("no grant rows is unrestricted", func(t *testing.T) {
		access := resolver.AccessibleBrands(ctx, "u2", "acc1")
		assert.True(t, access.Unrestricted)
		assert.Nil(t, access.List())
	})

	t.Run("grants are per account", func(t *testing.T) {
		assert.True(t, resolver.AccessibleBrands(ctx, "u1", "acc2").Unrestricted)
	})
}

func TestResolver_LookupErrorFailsOpen(t *testing.T) {
	resolver := NewResolver(brokenStore{})

	access := resolver.AccessibleBrands(context.Background(), "u1", "acc1")
	assert.True(t, access.Unrestricted)
	assert.True(t, resolver.HasBrandAccess(context.Background(), "u1", "acc1", "anything"))
}

func TestResolver_HasBrandAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryMembershipStore()
	store.SetGrants("u1", "acc1", "10")
	resolver := NewResolver(store)

	assert.True(t, resolver.HasBrandAccess(ctx, "u1", "acc1", "10"))
	assert.False(t, resolver.HasBrandAccess(ctx, "u1", "acc1", "20"))
}

func TestAccess_AllowsAny(t *testing.T) {
	access := Access{IDs: map[string]struct{}{"10": {}}}
	assert.True(t, access.AllowsAny([]string{"30", "10"}))
	assert.False(t, access.AllowsAny([]string{"30"}))
	assert.False(t, access.AllowsAny(nil))
	assert.True(t, Access{Unrestricted: true}.AllowsAny(nil))
}

func TestGormMembershipStore_BrandGrants(t *testing.T) {
	db, mock := dbtest.NewMock(t)
	store := NewGormMembershipStore(db)

	mock.ExpectQuery(`SELECT "?user_account_brands"?\."?brand_id"? FROM "user_account_brands" JOIN user_accounts ON .*user_accounts.user_id = \$1 AND user_accounts.account_id = \$2`).
		WithArgs("u1", "acc1", false, false).
		WillReturnRows(sqlmock.NewRows([]string{"brand_id"}).AddRow("10").AddRow("20"))

	ids, err := store.BrandGrants(context.Background(), "u1", "acc1")
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "20"}, ids)
}

func TestGormMembershipStore_Error(t *testing.T) {
	db, mock := dbtest.NewMock(t)
	store := NewGormMembershipStore(db)

	mock.ExpectQuery(`FROM "user_account_brands"`).WillReturnError(errors.New("db down"))

	_, err := store.BrandGrants(context.Background(), "u1", "acc1")
	assert.Error(t, err)

	// the resolver swallows the same failure
	assert.True(t, NewResolver(store).AccessibleBrands(context.Background(), "u1", "acc1").Unrestricted)
}
