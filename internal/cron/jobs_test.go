package cron

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kartlane/storefront-backend/internal/tokens"
	"github.com/kartlane/storefront-backend/pkg/db/models"
	"github.com/kartlane/storefront-backend/pkg/logger"
)

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeLedgerRepo struct {
	expired     int64
	deleted     int64
	purged      int64
	markErr     error
	deleteErr   error
	purgeCutoff time.Time
}

func (f *fakeLedgerRepo) WithTx(tx *gorm.DB) tokens.Repository { return f }

func (f *fakeLedgerRepo) Create(ctx context.Context, purchase *models.TokenPurchase) error {
	return nil
}

func (f *fakeLedgerRepo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.TokenPurchase, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedgerRepo) Activate(ctx context.Context, purchaseID uuid.UUID, gatewayPaymentID string, expiresAt time.Time) error {
	return nil
}

func (f *fakeLedgerRepo) SumRemaining(ctx context.Context, storeID uuid.UUID) (int, error) {
	return 0, nil
}

func (f *fakeLedgerRepo) ListActive(ctx context.Context, storeID uuid.UUID) ([]models.TokenPurchase, error) {
	return nil, nil
}

func (f *fakeLedgerRepo) FindDebitCandidate(ctx context.Context, storeID uuid.UUID) (*models.TokenPurchase, error) {
	return nil, nil
}

func (f *fakeLedgerRepo) DebitOne(ctx context.Context, purchaseID uuid.UUID, expectedRemaining int) (bool, error) {
	return false, nil
}

func (f *fakeLedgerRepo) MarkOverdueExpired(ctx context.Context, now time.Time) (int64, error) {
	return f.expired, f.markErr
}

func (f *fakeLedgerRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return f.deleted, f.deleteErr
}

func (f *fakeLedgerRepo) DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	f.purgeCutoff = cutoff
	return f.purged, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestTokenExpiryJob(t *testing.T) {
	repo := &fakeLedgerRepo{expired: 3, deleted: 2}
	job, err := NewTokenExpiryJob(TokenExpiryJobParams{
		Logger:     testLogger(),
		DB:         passthroughTx{},
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.Name() != "token-expiry" {
		t.Fatalf("name = %s", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestTokenExpiryJobCollectsStepErrors(t *testing.T) {
	repo := &fakeLedgerRepo{
		markErr:   errors.New("mark failed"),
		deleteErr: errors.New("delete failed"),
	}
	job, err := NewTokenExpiryJob(TokenExpiryJobParams{
		Logger:     testLogger(),
		DB:         passthroughTx{},
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	runErr := job.Run(context.Background())
	if runErr == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"mark failed", "delete failed"} {
		if !strings.Contains(runErr.Error(), want) {
			t.Errorf("error %q missing %q", runErr, want)
		}
	}
}

func TestPendingPurchaseJobUsesTTLCutoff(t *testing.T) {
	repo := &fakeLedgerRepo{purged: 1}
	job, err := NewPendingPurchaseJob(PendingPurchaseJobParams{
		Logger:     testLogger(),
		DB:         passthroughTx{},
		Repository: repo,
		TTL:        6 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	age := time.Since(repo.purgeCutoff)
	if age < 6*time.Hour-time.Minute || age > 6*time.Hour+time.Minute {
		t.Fatalf("cutoff age = %s, want about 6h", age)
	}
}
