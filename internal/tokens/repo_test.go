package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kartlane/storefront-backend/pkg/db/models"
	"github.com/kartlane/storefront-backend/pkg/enums"
)

func setupTokensTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS ai_token_purchases (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  tokens INTEGER NOT NULL,
  tokens_remaining INTEGER NOT NULL,
  tokens_used INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  amount_paise INTEGER NOT NULL DEFAULT 0,
  gateway_order_id TEXT UNIQUE,
  gateway_payment_id TEXT,
  expires_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec("DELETE FROM ai_token_purchases").Error)
	return db
}

func seedPurchase(t *testing.T, db *gorm.DB, purchase *models.TokenPurchase) {
	t.Helper()
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	require.NoError(t, db.Create(purchase).Error)
}

func TestRepository_DebitOneOptimisticGuard(t *testing.T) {
	db := setupTokensTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	purchase := &models.TokenPurchase{
		StoreID:         uuid.New(),
		Tokens:          5,
		TokensRemaining: 5,
		Status:          enums.PurchaseStatusActive,
	}
	seedPurchase(t, db, purchase)

	ok, err := repo.DebitOne(ctx, purchase.ID, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	// Stale expected balance loses the guard.
	ok, err = repo.DebitOne(ctx, purchase.ID, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	var reloaded models.TokenPurchase
	require.NoError(t, db.First(&reloaded, "id = ?", purchase.ID).Error)
	assert.Equal(t, 4, reloaded.TokensRemaining)
	assert.Equal(t, 1, reloaded.TokensUsed)
}

func TestRepository_FindDebitCandidateOrdering(t *testing.T) {
	db := setupTokensTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	storeID := uuid.New()

	now := time.Now().UTC()
	noExpiry := &models.TokenPurchase{StoreID: storeID, Tokens: 3, TokensRemaining: 3, Status: enums.PurchaseStatusActive}
	late := &models.TokenPurchase{StoreID: storeID, Tokens: 3, TokensRemaining: 3, Status: enums.PurchaseStatusActive, ExpiresAt: timePtr(now.Add(60 * 24 * time.Hour))}
	soon := &models.TokenPurchase{StoreID: storeID, Tokens: 3, TokensRemaining: 3, Status: enums.PurchaseStatusActive, ExpiresAt: timePtr(now.Add(24 * time.Hour))}
	drained := &models.TokenPurchase{StoreID: storeID, Tokens: 3, TokensRemaining: 0, Status: enums.PurchaseStatusActive, ExpiresAt: timePtr(now.Add(time.Hour))}
	seedPurchase(t, db, noExpiry)
	seedPurchase(t, db, late)
	seedPurchase(t, db, soon)
	seedPurchase(t, db, drained)

	candidate, err := repo.FindDebitCandidate(ctx, storeID)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, soon.ID, candidate.ID)

	require.NoError(t, db.Model(soon).Update("tokens_remaining", 0).Error)
	require.NoError(t, db.Model(late).Update("tokens_remaining", 0).Error)

	candidate, err = repo.FindDebitCandidate(ctx, storeID)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, noExpiry.ID, candidate.ID, "batches without expiry come last")
}

func TestRepository_ActivateOnlyPending(t *testing.T) {
	db := setupTokensTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orderID := "order_rzp_1"
	purchase := &models.TokenPurchase{
		StoreID:         uuid.New(),
		Tokens:          10,
		TokensRemaining: 10,
		Status:          enums.PurchaseStatusPending,
		GatewayOrderID:  &orderID,
	}
	seedPurchase(t, db, purchase)

	expiresAt := time.Now().UTC().Add(90 * 24 * time.Hour)
	require.NoError(t, repo.Activate(ctx, purchase.ID, "pay_1", expiresAt))

	loaded, err := repo.GetByGatewayOrderID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseStatusActive, loaded.Status)
	require.NotNil(t, loaded.GatewayPaymentID)
	assert.Equal(t, "pay_1", *loaded.GatewayPaymentID)

	// A replayed confirmation finds no pending row.
	err = repo.Activate(ctx, purchase.ID, "pay_1", expiresAt)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_SweepQueries(t *testing.T) {
	db := setupTokensTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	storeID := uuid.New()
	now := time.Now().UTC()

	overdue := &models.TokenPurchase{StoreID: storeID, Tokens: 2, TokensRemaining: 2, Status: enums.PurchaseStatusActive, ExpiresAt: timePtr(now.Add(-time.Minute))}
	valid := &models.TokenPurchase{StoreID: storeID, Tokens: 2, TokensRemaining: 2, Status: enums.PurchaseStatusActive, ExpiresAt: timePtr(now.Add(time.Hour))}
	stale := &models.TokenPurchase{StoreID: storeID, Tokens: 2, TokensRemaining: 2, Status: enums.PurchaseStatusPending, CreatedAt: now.Add(-48 * time.Hour)}
	seedPurchase(t, db, overdue)
	seedPurchase(t, db, valid)
	seedPurchase(t, db, stale)

	expired, err := repo.MarkOverdueExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, expired)

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	purged, err := repo.DeleteStalePending(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	remaining, err := repo.SumRemaining(ctx, storeID)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}
