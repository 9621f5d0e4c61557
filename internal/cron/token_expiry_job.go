package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/kartlane/storefront-backend/internal/tokens"
	"github.com/kartlane/storefront-backend/pkg/logger"
)

// txRunner executes a function inside a database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// TokenExpiryJobParams configure the token expiry job.
type TokenExpiryJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository tokens.Repository
}

type tokenExpiryJob struct {
	logg *logger.Logger
	db   txRunner
	repo tokens.Repository
	now  func() time.Time
}

// NewTokenExpiryJob builds the job that retires lapsed token batches. The
// read path sweeps opportunistically too; this job catches stores nobody is
// reading.
func NewTokenExpiryJob(params TokenExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("tokens repository required")
	}
	return &tokenExpiryJob{
		logg: params.Logger,
		db:   params.DB,
		repo: params.Repository,
		now:  time.Now,
	}, nil
}

func (j *tokenExpiryJob) Name() string { return "token-expiry" }

func (j *tokenExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	var expired, deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repo.WithTx(tx)
		var errs error
		rows, err := repo.MarkOverdueExpired(ctx, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mark overdue: %w", err))
		} else {
			expired = rows
		}
		rows, err = repo.DeleteExpired(ctx, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete expired: %w", err))
		} else {
			deleted = rows
		}
		return errs
	})
	if err != nil {
		return fmt.Errorf("token expiry: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"rows_expired": expired,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "token expiry pass complete")
	return nil
}
