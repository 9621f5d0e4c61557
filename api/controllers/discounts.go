package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kartlane/storefront-backend/api/responses"
	"github.com/kartlane/storefront-backend/api/validators"
	discountsvc "github.com/kartlane/storefront-backend/internal/discounts"
	"github.com/kartlane/storefront-backend/pkg/db/models"
	"github.com/kartlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/kartlane/storefront-backend/pkg/errors"
	"github.com/kartlane/storefront-backend/pkg/logger"
	"github.com/kartlane/storefront-backend/pkg/types"
)

// DiscountRuleCreate handles creation of a discount rule for the
// authenticated store.
func DiscountRuleCreate(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createRuleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.CreateRule(r.Context(), storeID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newRuleResponse(rule))
	}
}

// DiscountRuleList returns every rule configured by the store.
func DiscountRuleList(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rules, err := svc.ListRules(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]ruleResponse, len(rules))
		for i := range rules {
			out[i] = newRuleResponse(&rules[i])
		}
		responses.WriteSuccess(w, out)
	}
}

// DiscountRuleUpdateStatus toggles a rule between active and disabled.
func DiscountRuleUpdateStatus(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ruleID, err := validators.ParseUUIDParam(r, "ruleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateRuleStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseRuleStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		if err := svc.UpdateRuleStatus(r.Context(), storeID, ruleID, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": string(status)})
	}
}

// DiscountRuleDelete removes a rule.
func DiscountRuleDelete(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ruleID, err := validators.ParseUUIDParam(r, "ruleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteRule(r.Context(), storeID, ruleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// DiscountEvaluate runs the rule engine over a checkout cart.
func DiscountEvaluate(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload evaluateCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Evaluate(r.Context(), storeID, payload.toSnapshot())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type createRuleRequest struct {
	Name       string                 `json:"name" validate:"required"`
	RuleType   string                 `json:"rule_type" validate:"required"`
	OrderType  string                 `json:"order_type"`
	StartDate  time.Time              `json:"start_date" validate:"required"`
	ExpiryDate time.Time              `json:"expiry_date" validate:"required"`
	Tiers      []tierPayload          `json:"tiers" validate:"dive"`
	Conditions []ruleConditionPayload `json:"conditions" validate:"dive"`
}

type tierPayload struct {
	MinOrderValue decimal.Decimal `json:"min_order_value"`
	DiscountType  string          `json:"discount_type" validate:"required"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

type ruleConditionPayload struct {
	RuleValue     string          `json:"rule_value"`
	DiscountType  string          `json:"discount_type" validate:"required"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

type updateRuleStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type evaluateCartRequest struct {
	Items         []types.CartItem `json:"items" validate:"required,dive"`
	CartTotal     decimal.Decimal  `json:"cart_total"`
	PaymentMethod string           `json:"payment_method" validate:"required"`
	CustomerPhone string           `json:"customer_phone"`
	CustomerEmail string           `json:"customer_email"`
}

func (r createRuleRequest) toInput() (discountsvc.CreateRuleInput, error) {
	ruleType, err := enums.ParseRuleType(r.RuleType)
	if err != nil {
		return discountsvc.CreateRuleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rule type")
	}

	orderType := enums.OrderTypeAll
	if r.OrderType != "" {
		orderType, err = enums.ParseOrderType(r.OrderType)
		if err != nil {
			return discountsvc.CreateRuleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order type")
		}
	}

	tiers := make([]discountsvc.TierInput, len(r.Tiers))
	for i, tier := range r.Tiers {
		discountType, err := enums.ParseDiscountType(tier.DiscountType)
		if err != nil {
			return discountsvc.CreateRuleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier discount type")
		}
		tiers[i] = discountsvc.TierInput{
			MinOrderValue: tier.MinOrderValue,
			DiscountType:  discountType,
			DiscountValue: tier.DiscountValue,
		}
	}

	conditions := make([]discountsvc.ConditionInput, len(r.Conditions))
	for i, cond := range r.Conditions {
		discountType, err := enums.ParseDiscountType(cond.DiscountType)
		if err != nil {
			return discountsvc.CreateRuleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition discount type")
		}
		conditions[i] = discountsvc.ConditionInput{
			RuleValue:     cond.RuleValue,
			DiscountType:  discountType,
			DiscountValue: cond.DiscountValue,
		}
	}

	return discountsvc.CreateRuleInput{
		Name:       r.Name,
		RuleType:   ruleType,
		OrderType:  orderType,
		StartDate:  r.StartDate,
		ExpiryDate: r.ExpiryDate,
		Tiers:      tiers,
		Conditions: conditions,
	}, nil
}

func (r evaluateCartRequest) toSnapshot() types.CartSnapshot {
	return types.CartSnapshot{
		Items:         r.Items,
		CartTotal:     r.CartTotal,
		PaymentMethod: r.PaymentMethod,
		CustomerPhone: r.CustomerPhone,
		CustomerEmail: r.CustomerEmail,
	}
}

type ruleResponse struct {
	ID         uuid.UUID               `json:"id"`
	Name       string                  `json:"name"`
	RuleType   enums.RuleType          `json:"rule_type"`
	OrderType  enums.OrderType         `json:"order_type"`
	Status     enums.RuleStatus        `json:"status"`
	StartDate  time.Time               `json:"start_date"`
	ExpiryDate time.Time               `json:"expiry_date"`
	CreatedAt  time.Time               `json:"created_at"`
	Tiers      []tierResponse          `json:"tiers,omitempty"`
	Conditions []ruleConditionResponse `json:"conditions,omitempty"`
}

type tierResponse struct {
	ID            uuid.UUID          `json:"id"`
	MinOrderValue decimal.Decimal    `json:"min_order_value"`
	DiscountType  enums.DiscountType `json:"discount_type"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
}

type ruleConditionResponse struct {
	ID            uuid.UUID          `json:"id"`
	RuleValue     string             `json:"rule_value"`
	DiscountType  enums.DiscountType `json:"discount_type"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
}

func newRuleResponse(rule *models.DiscountRule) ruleResponse {
	resp := ruleResponse{
		ID:         rule.ID,
		Name:       rule.Name,
		RuleType:   rule.RuleType,
		OrderType:  rule.OrderType,
		Status:     rule.Status,
		StartDate:  rule.StartDate,
		ExpiryDate: rule.ExpiryDate,
		CreatedAt:  rule.CreatedAt,
	}
	for _, tier := range rule.Tiers {
		resp.Tiers = append(resp.Tiers, tierResponse{
			ID:            tier.ID,
			MinOrderValue: tier.MinOrderValue,
			DiscountType:  tier.DiscountType,
			DiscountValue: tier.DiscountValue,
		})
	}
	for _, cond := range rule.Conditions {
		resp.Conditions = append(resp.Conditions, ruleConditionResponse{
			ID:            cond.ID,
			RuleValue:     cond.RuleValue,
			DiscountType:  cond.DiscountType,
			DiscountValue: cond.DiscountValue,
		})
	}
	return resp
}
