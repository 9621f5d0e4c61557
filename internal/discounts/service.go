package discounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kartlane/storefront-backend/internal/orders"
	"github.com/kartlane/storefront-backend/pkg/db/models"
	"github.com/kartlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/kartlane/storefront-backend/pkg/errors"
	"github.com/kartlane/storefront-backend/pkg/logger"
	"github.com/kartlane/storefront-backend/pkg/metrics"
	"github.com/kartlane/storefront-backend/pkg/types"
)

// Service defines discount rule management and checkout evaluation.
type Service interface {
	CreateRule(ctx context.Context, storeID uuid.UUID, input CreateRuleInput) (*models.DiscountRule, error)
	ListRules(ctx context.Context, storeID uuid.UUID) ([]models.DiscountRule, error)
	UpdateRuleStatus(ctx context.Context, storeID, ruleID uuid.UUID, status enums.RuleStatus) error
	DeleteRule(ctx context.Context, storeID, ruleID uuid.UUID) error
	Evaluate(ctx context.Context, storeID uuid.UUID, cart types.CartSnapshot) (*EvaluationResult, error)
}

// ServiceParams wires the dependencies of the discounts service.
type ServiceParams struct {
	Repo       Repository
	OrdersRepo orders.Repository
	Logger     *logger.Logger
	Metrics    *metrics.CoreMetrics
	Now        func() time.Time
}

type service struct {
	repo       Repository
	ordersRepo orders.Repository
	logger     *logger.Logger
	metrics    *metrics.CoreMetrics
	now        func() time.Time
}

// NewService validates dependencies and builds the discounts service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("discounts repository required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:       params.Repo,
		ordersRepo: params.OrdersRepo,
		logger:     params.Logger,
		metrics:    params.Metrics,
		now:        now,
	}, nil
}

// TierInput is one step of a tiered rule's schedule.
type TierInput struct {
	MinOrderValue decimal.Decimal    `json:"min_order_value"`
	DiscountType  enums.DiscountType `json:"discount_type"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
}

// ConditionInput parameterizes a non-tiered rule.
type ConditionInput struct {
	RuleValue     string             `json:"rule_value"`
	DiscountType  enums.DiscountType `json:"discount_type"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
}

// CreateRuleInput captures the data needed to configure a rule.
type CreateRuleInput struct {
	Name       string           `json:"name"`
	RuleType   enums.RuleType   `json:"rule_type"`
	OrderType  enums.OrderType  `json:"order_type"`
	StartDate  time.Time        `json:"start_date"`
	ExpiryDate time.Time        `json:"expiry_date"`
	Tiers      []TierInput      `json:"tiers"`
	Conditions []ConditionInput `json:"conditions"`
}

// EvaluationResult is the outcome of running the engine over a cart. When no
// rule qualifies, Applied is false and Discount is zero.
type EvaluationResult struct {
	Applied    bool            `json:"applied"`
	Discount   decimal.Decimal `json:"discount"`
	FinalTotal decimal.Decimal `json:"final_total"`
	RuleID     *uuid.UUID      `json:"rule_id,omitempty"`
	RuleName   string          `json:"rule_name,omitempty"`
	RuleType   enums.RuleType  `json:"rule_type,omitempty"`
}

func (s *service) CreateRule(ctx context.Context, storeID uuid.UUID, input CreateRuleInput) (*models.DiscountRule, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if err := validateRuleInput(input); err != nil {
		return nil, err
	}

	orderType := input.OrderType
	if orderType == "" {
		orderType = enums.OrderTypeAll
	}

	rule := &models.DiscountRule{
		StoreID:    storeID,
		Name:       input.Name,
		RuleType:   input.RuleType,
		OrderType:  orderType,
		Status:     enums.RuleStatusActive,
		StartDate:  input.StartDate,
		ExpiryDate: input.ExpiryDate,
	}
	for _, tier := range input.Tiers {
		rule.Tiers = append(rule.Tiers, models.DiscountTier{
			MinOrderValue: tier.MinOrderValue,
			DiscountType:  tier.DiscountType,
			DiscountValue: tier.DiscountValue,
		})
	}
	for _, cond := range input.Conditions {
		rule.Conditions = append(rule.Conditions, models.DiscountRuleCondition{
			RuleValue:     cond.RuleValue,
			DiscountType:  cond.DiscountType,
			DiscountValue: cond.DiscountValue,
		})
	}

	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating discount rule")
	}
	return rule, nil
}

func (s *service) ListRules(ctx context.Context, storeID uuid.UUID) ([]models.DiscountRule, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	rules, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing discount rules")
	}
	return rules, nil
}

func (s *service) UpdateRuleStatus(ctx context.Context, storeID, ruleID uuid.UUID, status enums.RuleStatus) error {
	if storeID == uuid.Nil || ruleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id and rule id are required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid rule status %q", status))
	}
	if err := s.repo.UpdateStatus(ctx, storeID, ruleID, status); err != nil {
		if isNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "discount rule not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating rule status")
	}
	return nil
}

func (s *service) DeleteRule(ctx context.Context, storeID, ruleID uuid.UUID) error {
	if storeID == uuid.Nil || ruleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id and rule id are required")
	}
	if err := s.repo.Delete(ctx, storeID, ruleID); err != nil {
		if isNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "discount rule not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting rule")
	}
	return nil
}

// Evaluate runs every eligible rule over the cart and returns the single best
// discount. A rule that fails to evaluate is skipped so one misconfigured
// rule cannot take down checkout.
func (s *service) Evaluate(ctx context.Context, storeID uuid.UUID, cart types.CartSnapshot) (*EvaluationResult, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	method, err := enums.ParsePaymentMethod(cart.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if cart.CartTotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart total cannot be negative")
	}

	now := s.now()
	rules, err := s.repo.ListActiveRules(ctx, storeID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading active rules")
	}

	best := &EvaluationResult{
		Discount:   decimal.Zero,
		FinalTotal: cart.CartTotal,
	}

	for i := range rules {
		rule := rules[i]
		if !rule.OrderType.Allows(method) {
			continue
		}

		amount, err := s.evaluateRule(ctx, rule, cart)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn(
					s.logger.WithFields(ctx, map[string]any{"rule_id": rule.ID.String(), "rule_type": rule.RuleType.String()}),
					fmt.Sprintf("skipping rule evaluation: %v", err),
				)
			}
			continue
		}
		if amount.LessThanOrEqual(decimal.Zero) {
			continue
		}
		if amount.GreaterThan(cart.CartTotal) {
			amount = cart.CartTotal
		}

		// First rule in created_at order wins ties.
		if amount.GreaterThan(best.Discount) {
			ruleID := rule.ID
			best = &EvaluationResult{
				Applied:    true,
				Discount:   amount,
				FinalTotal: cart.CartTotal.Sub(amount),
				RuleID:     &ruleID,
				RuleName:   rule.Name,
				RuleType:   rule.RuleType,
			}
		}
	}

	if best.Applied {
		s.metrics.IncEvaluation("applied")
	} else {
		s.metrics.IncEvaluation("no_discount")
	}
	return best, nil
}

func validateRuleInput(input CreateRuleInput) error {
	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "rule name is required")
	}
	if !input.RuleType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid rule type %q", input.RuleType))
	}
	if input.OrderType != "" && !input.OrderType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order type %q", input.OrderType))
	}
	if input.StartDate.IsZero() || input.ExpiryDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and expiry dates are required")
	}
	if !input.ExpiryDate.After(input.StartDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "expiry date must be after start date")
	}

	if input.RuleType == enums.RuleTypeTieredValue {
		if len(input.Tiers) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "tiered rules require at least one tier")
		}
		for _, tier := range input.Tiers {
			if tier.MinOrderValue.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "tier minimum order value cannot be negative")
			}
			if err := validateDiscountValue(tier.DiscountType, tier.DiscountValue); err != nil {
				return err
			}
		}
		return nil
	}

	if len(input.Conditions) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rule requires at least one condition")
	}
	for _, cond := range input.Conditions {
		if err := validateDiscountValue(cond.DiscountType, cond.DiscountValue); err != nil {
			return err
		}
		switch input.RuleType {
		case enums.RuleTypeCategory:
			if cond.RuleValue == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "category rules require a category id")
			}
		case enums.RuleTypeQuantity:
			if _, err := parseMinQuantity(cond.RuleValue); err != nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "quantity rules require a positive minimum quantity")
			}
		}
	}
	return nil
}

func validateDiscountValue(discountType enums.DiscountType, value decimal.Decimal) error {
	if !discountType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid discount type %q", discountType))
	}
	if value.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if discountType == enums.DiscountTypePercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	return nil
}
