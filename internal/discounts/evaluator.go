package discounts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kartlane/storefront-backend/pkg/db/models"
	"github.com/kartlane/storefront-backend/pkg/enums"
	"github.com/kartlane/storefront-backend/pkg/types"
)

var oneHundred = decimal.NewFromInt(100)

// evaluateRule dispatches over the closed rule-type set and returns the
// discount amount the rule yields for this cart, zero when it does not apply.
func (s *service) evaluateRule(ctx context.Context, rule models.DiscountRule, cart types.CartSnapshot) (decimal.Decimal, error) {
	switch rule.RuleType {
	case enums.RuleTypeTieredValue:
		return evaluateTiered(rule, cart), nil
	case enums.RuleTypeNewCustomer:
		return s.evaluateCustomerStatus(ctx, rule, cart, false)
	case enums.RuleTypeReturningCustomer:
		return s.evaluateCustomerStatus(ctx, rule, cart, true)
	case enums.RuleTypeCategory:
		return evaluateCategory(rule, cart), nil
	case enums.RuleTypeQuantity:
		return evaluateQuantity(rule, cart)
	default:
		return decimal.Zero, fmt.Errorf("unknown rule type %q", rule.RuleType)
	}
}

// evaluateTiered picks the highest tier whose minimum the cart total meets.
// Tiers arrive sorted ascending by min_order_value.
func evaluateTiered(rule models.DiscountRule, cart types.CartSnapshot) decimal.Decimal {
	var matched *models.DiscountTier
	for i := range rule.Tiers {
		if cart.CartTotal.GreaterThanOrEqual(rule.Tiers[i].MinOrderValue) {
			matched = &rule.Tiers[i]
		}
	}
	if matched == nil {
		return decimal.Zero
	}
	return discountAmount(matched.DiscountType, matched.DiscountValue, cart.CartTotal)
}

// evaluateCustomerStatus applies a rule gated on the customer's order
// history. Carts without a phone or email cannot be classified, so the rule
// is skipped for them.
func (s *service) evaluateCustomerStatus(ctx context.Context, rule models.DiscountRule, cart types.CartSnapshot, wantReturning bool) (decimal.Decimal, error) {
	phone := strings.TrimSpace(cart.CustomerPhone)
	email := strings.TrimSpace(cart.CustomerEmail)
	if phone == "" && email == "" {
		return decimal.Zero, nil
	}

	hasOrders, err := s.ordersRepo.ExistsForCustomer(ctx, rule.StoreID, phone, email)
	if err != nil {
		return decimal.Zero, fmt.Errorf("customer history lookup: %w", err)
	}
	if hasOrders != wantReturning {
		return decimal.Zero, nil
	}

	if len(rule.Conditions) == 0 {
		return decimal.Zero, fmt.Errorf("rule has no conditions")
	}
	cond := rule.Conditions[0]
	return discountAmount(cond.DiscountType, cond.DiscountValue, cart.CartTotal), nil
}

// evaluateCategory checks every category condition against the cart and
// keeps the best discount among those whose category has items in the cart.
// The discount base is the category subtotal, not the full cart.
func evaluateCategory(rule models.DiscountRule, cart types.CartSnapshot) decimal.Decimal {
	best := decimal.Zero
	for _, cond := range rule.Conditions {
		subtotal := cart.CategorySubtotal(cond.RuleValue)
		if subtotal.LessThanOrEqual(decimal.Zero) {
			continue
		}
		amount := discountAmount(cond.DiscountType, cond.DiscountValue, subtotal)
		if amount.GreaterThan(best) {
			best = amount
		}
	}
	return best
}

// evaluateQuantity applies when the cart's total item count reaches the
// condition's threshold. The discount base is the full cart total.
func evaluateQuantity(rule models.DiscountRule, cart types.CartSnapshot) (decimal.Decimal, error) {
	best := decimal.Zero
	for _, cond := range rule.Conditions {
		minQty, err := parseMinQuantity(cond.RuleValue)
		if err != nil {
			return decimal.Zero, err
		}
		if cart.TotalQuantity() < minQty {
			continue
		}
		amount := discountAmount(cond.DiscountType, cond.DiscountValue, cart.CartTotal)
		if amount.GreaterThan(best) {
			best = amount
		}
	}
	return best, nil
}

// discountAmount converts a discount definition into a concrete amount
// against the given base. Flat discounts never exceed the base.
func discountAmount(discountType enums.DiscountType, value, base decimal.Decimal) decimal.Decimal {
	switch discountType {
	case enums.DiscountTypePercentage:
		return base.Mul(value).Div(oneHundred).Round(2)
	case enums.DiscountTypeFlat:
		if value.GreaterThan(base) {
			return base
		}
		return value
	default:
		return decimal.Zero
	}
}

func parseMinQuantity(value string) (int, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid minimum quantity %q", value)
	}
	if qty <= 0 {
		return 0, fmt.Errorf("minimum quantity must be positive, got %d", qty)
	}
	return qty, nil
}
