package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kartlane/storefront-backend/internal/tokens"
	"github.com/kartlane/storefront-backend/pkg/logger"
)

const defaultPendingTTL = 24 * time.Hour

// PendingPurchaseJobParams configure the stale pending purchase purge.
type PendingPurchaseJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository tokens.Repository
	TTL        time.Duration
}

type pendingPurchaseJob struct {
	logg *logger.Logger
	db   txRunner
	repo tokens.Repository
	ttl  time.Duration
	now  func() time.Time
}

// NewPendingPurchaseJob builds the job that drops purchases whose payment was
// never confirmed inside the TTL window.
func NewPendingPurchaseJob(params PendingPurchaseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("tokens repository required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	return &pendingPurchaseJob{
		logg: params.Logger,
		db:   params.DB,
		repo: params.Repository,
		ttl:  ttl,
		now:  time.Now,
	}, nil
}

func (j *pendingPurchaseJob) Name() string { return "pending-purchase-purge" }

func (j *pendingPurchaseJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	var purged int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.WithTx(tx).DeleteStalePending(ctx, cutoff)
		if err != nil {
			return err
		}
		purged = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("pending purchase purge: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":      cutoff,
		"rows_purged": purged,
	})
	j.logg.Info(logCtx, "pending purchase purge complete")
	return nil
}
