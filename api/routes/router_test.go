package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	designersvc "github.com/kartlane/storefront-backend/internal/designer"
	discountsvc "github.com/kartlane/storefront-backend/internal/discounts"
	paymentsvc "github.com/kartlane/storefront-backend/internal/payments"
	tokensvc "github.com/kartlane/storefront-backend/internal/tokens"
	pkgAuth "github.com/kartlane/storefront-backend/pkg/auth"
	"github.com/kartlane/storefront-backend/pkg/config"
	"github.com/kartlane/storefront-backend/pkg/db/models"
	"github.com/kartlane/storefront-backend/pkg/enums"
	"github.com/kartlane/storefront-backend/pkg/logger"
	"github.com/kartlane/storefront-backend/pkg/pagination"
	"github.com/kartlane/storefront-backend/pkg/redis"
	"github.com/kartlane/storefront-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubDiscounts struct{}

func (stubDiscounts) CreateRule(ctx context.Context, storeID uuid.UUID, input discountsvc.CreateRuleInput) (*models.DiscountRule, error) {
	return &models.DiscountRule{ID: uuid.New()}, nil
}

func (stubDiscounts) ListRules(ctx context.Context, storeID uuid.UUID) ([]models.DiscountRule, error) {
	return nil, nil
}

func (stubDiscounts) UpdateRuleStatus(ctx context.Context, storeID, ruleID uuid.UUID, status enums.RuleStatus) error {
	return nil
}

func (stubDiscounts) DeleteRule(ctx context.Context, storeID, ruleID uuid.UUID) error {
	return nil
}

func (stubDiscounts) Evaluate(ctx context.Context, storeID uuid.UUID, cart types.CartSnapshot) (*discountsvc.EvaluationResult, error) {
	return &discountsvc.EvaluationResult{}, nil
}

type stubTokens struct{}

func (stubTokens) Balance(ctx context.Context, storeID uuid.UUID) (*tokensvc.BalanceResult, error) {
	return &tokensvc.BalanceResult{Tokens: 3}, nil
}

func (stubTokens) Debit(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) (*tokensvc.DebitResult, error) {
	return nil, nil
}

func (stubTokens) Sweep(ctx context.Context) (tokensvc.SweepResult, error) {
	return tokensvc.SweepResult{}, nil
}

type stubPayments struct{}

func (stubPayments) InitiatePurchase(ctx context.Context, storeID uuid.UUID, input paymentsvc.InitiatePurchaseInput) (*paymentsvc.InitiateResult, error) {
	return &paymentsvc.InitiateResult{}, nil
}

func (stubPayments) ConfirmPurchase(ctx context.Context, storeID uuid.UUID, input paymentsvc.ConfirmPurchaseInput) (*models.TokenPurchase, error) {
	return &models.TokenPurchase{}, nil
}

type stubDesigner struct{}

func (stubDesigner) Generate(ctx context.Context, input designersvc.GenerateInput) (*designersvc.GenerateResult, error) {
	return &designersvc.GenerateResult{}, nil
}

func (stubDesigner) ApplyDesign(ctx context.Context, storeID, historyID uuid.UUID) (*models.StoreDesignState, error) {
	return &models.StoreDesignState{}, nil
}

func (stubDesigner) ResetDesign(ctx context.Context, storeID uuid.UUID) error { return nil }

func (stubDesigner) GetDesign(ctx context.Context, storeID uuid.UUID) (*designersvc.DesignPayload, bool, error) {
	return &designersvc.DesignPayload{}, false, nil
}

func (stubDesigner) ListHistory(ctx context.Context, storeID uuid.UUID, params pagination.Params) (*designersvc.HistoryPage, error) {
	return &designersvc.HistoryPage{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "router-test"})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubDiscounts{},
		stubTokens{},
		stubPayments{},
		stubDesigner{},
	)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestProtectedRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, target := range []string{
		"/api/v1/discounts",
		"/api/v1/tokens/balance",
		"/api/v1/designer/design",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token got %d", target, resp.Code)
		}
	}
}

func TestProtectedRouteAcceptsValidJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	storeID := uuid.New()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:  uuid.New(),
		StoreID: &storeID,
		Role:    enums.MemberRoleOwner,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tokens/balance", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestStoreScopedRouteRejectsTokenWithoutStore(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.MemberRoleStaff,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tokens/balance", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
