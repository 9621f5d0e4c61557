package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kartlane/storefront-backend/pkg/config"
	pkgerrors "github.com/kartlane/storefront-backend/pkg/errors"
	"github.com/kartlane/storefront-backend/pkg/logger"
	"github.com/kartlane/storefront-backend/pkg/metrics"
)

// debitAttempts bounds the reselect loop when concurrent debits collide.
const debitAttempts = 3

// Service defines the token ledger operations.
type Service interface {
	Balance(ctx context.Context, storeID uuid.UUID) (*BalanceResult, error)
	Debit(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) (*DebitResult, error)
	Sweep(ctx context.Context) (SweepResult, error)
}

// ServiceParams wires the dependencies of the token ledger service.
type ServiceParams struct {
	Repo    Repository
	Config  config.DesignerConfig
	Logger  *logger.Logger
	Metrics *metrics.CoreMetrics
	Now     func() time.Time
}

type service struct {
	repo    Repository
	cfg     config.DesignerConfig
	logger  *logger.Logger
	metrics *metrics.CoreMetrics
	now     func() time.Time
}

// NewService validates dependencies and builds the token ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("tokens repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		cfg:     params.Config,
		logger:  params.Logger,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

// BalanceResult summarizes a store's usable tokens.
type BalanceResult struct {
	Tokens        int        `json:"tokens"`
	NextExpiresAt *time.Time `json:"next_expires_at,omitempty"`
}

// DebitResult identifies the batch a token was consumed from.
type DebitResult struct {
	PurchaseID uuid.UUID `json:"purchase_id"`
	Remaining  int       `json:"remaining"`
}

// SweepResult reports what a ledger sweep removed.
type SweepResult struct {
	Expired     int64 `json:"expired"`
	Deleted     int64 `json:"deleted"`
	StalePurged int64 `json:"stale_purged"`
}

// Balance sweeps the ledger then sums the remaining active tokens, so a
// balance read never reports tokens from a lapsed batch.
func (s *service) Balance(ctx context.Context, storeID uuid.UUID) (*BalanceResult, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if _, err := s.Sweep(ctx); err != nil {
		return nil, err
	}

	total, err := s.repo.SumRemaining(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summing token balance")
	}

	result := &BalanceResult{Tokens: total}
	if total > 0 {
		purchases, err := s.repo.ListActive(ctx, storeID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing active purchases")
		}
		for _, purchase := range purchases {
			if purchase.TokensRemaining > 0 && purchase.ExpiresAt != nil {
				result.NextExpiresAt = purchase.ExpiresAt
				break
			}
		}
	}
	return result, nil
}

// Debit consumes one token from the batch expiring soonest. When tx is
// non-nil the debit joins that transaction so it commits or rolls back with
// the caller's writes.
func (s *service) Debit(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) (*DebitResult, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	repo := s.repo.WithTx(tx)

	for attempt := 0; attempt < debitAttempts; attempt++ {
		candidate, err := repo.FindDebitCandidate(ctx, storeID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "selecting debit candidate")
		}
		if candidate == nil {
			return nil, pkgerrors.New(pkgerrors.CodePaymentRequired, "no design tokens remaining")
		}

		ok, err := repo.DebitOne(ctx, candidate.ID, candidate.TokensRemaining)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "debiting token")
		}
		if ok {
			s.metrics.IncTokenDebit()
			return &DebitResult{
				PurchaseID: candidate.ID,
				Remaining:  candidate.TokensRemaining - 1,
			}, nil
		}
		// Lost the race, reselect.
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "token debit contention, please retry")
}

// Sweep advances the ledger lifecycle: active batches past their expiry are
// marked expired, expired batches are deleted, and pending purchases older
// than the confirmation window are purged.
func (s *service) Sweep(ctx context.Context) (SweepResult, error) {
	now := s.now()
	var result SweepResult

	expired, err := s.repo.MarkOverdueExpired(ctx, now)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "expiring overdue purchases")
	}
	result.Expired = expired

	deleted, err := s.repo.DeleteExpired(ctx, now)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting expired purchases")
	}
	result.Deleted = deleted

	ttl := s.cfg.PendingPurchaseTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	stale, err := s.repo.DeleteStalePending(ctx, now.Add(-ttl))
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "purging stale pending purchases")
	}
	result.StalePurged = stale

	if s.logger != nil && (result.Expired > 0 || result.Deleted > 0 || result.StalePurged > 0) {
		s.logger.Info(ctx, fmt.Sprintf(
			"token ledger sweep: expired=%d deleted=%d stale=%d",
			result.Expired, result.Deleted, result.StalePurged,
		))
	}
	return result, nil
}
