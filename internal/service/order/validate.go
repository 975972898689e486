package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"marketplace/internal/code"
	"marketplace/internal/model"
	"marketplace/internal/store"
)

// acceptingOffering loads the offering and checks it takes orders of type t.
// CREATE and UPDATE also require an unblocked customer.
func (s *orderSrv) acceptingOffering(ctx context.Context, f store.Factory, offeringID string,
	t model.OrderType) (*model.Offering, error) {
	if offeringID == "" {
		return nil, errors.WithStack(code.ErrValidation.WithResult("offering_id is required"))
	}
	offering, err := f.Offerings().Get(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	if !offering.State.Accepts(t) {
		return nil, errors.WithStack(code.ErrIncorrectState.WithResult(
			fmt.Sprintf("offering %s is %s and takes no %s orders", offering.ID, offering.State, t)))
	}
	if t == model.OrderTerminate {
		return offering, nil
	}
	customer, err := f.Customers().Get(ctx, offering.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer.Blocked {
		return nil, errors.WithStack(code.ErrCustomerBlocked.WithResult(customer.ID))
	}
	return offering, nil
}

func (s *orderSrv) checkPlan(ctx context.Context, f store.Factory, offering *model.Offering, planID string) error {
	if planID == "" {
		return nil
	}
	plan, err := f.Plans().Get(ctx, planID)
	if err != nil {
		return err
	}
	if plan.OfferingID != offering.ID {
		return errors.WithStack(code.ErrValidation.WithResult(
			fmt.Sprintf("plan %s does not belong to offering %s", plan.ID, offering.ID)))
	}
	if plan.Archived {
		return errors.WithStack(code.ErrValidation.WithResult(fmt.Sprintf("plan %s is archived", plan.ID)))
	}
	return nil
}

func (s *orderSrv) checkRequiredLimits(offeringType string, limits model.Limits) error {
	var missing []string
	for _, name := range s.registry.RequiredLimits(offeringType) {
		if _, ok := limits[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errors.WithStack(code.ErrValidation.WithResult("missing limits: " + strings.Join(missing, ", ")))
	}
	for name, v := range limits {
		if v < 0 {
			return errors.WithStack(code.ErrValidation.WithResult(fmt.Sprintf("limit %s is negative", name)))
		}
	}
	return nil
}

func (s *orderSrv) checkLimitUpdate(offeringType string, limits model.Limits) error {
	if !s.registry.CanUpdateLimits(offeringType) {
		return errors.WithStack(code.ErrValidation.WithResult(offeringType + " does not allow updating limits"))
	}
	available := make(map[string]struct{})
	for _, name := range s.registry.AvailableLimits(offeringType) {
		available[name] = struct{}{}
	}
	for name, v := range limits {
		if _, ok := available[name]; !ok {
			return errors.WithStack(code.ErrValidation.WithResult(fmt.Sprintf("limit %s is not available", name)))
		}
		if v < 0 {
			return errors.WithStack(code.ErrValidation.WithResult(fmt.Sprintf("limit %s is negative", name)))
		}
	}
	return nil
}

func ensureNoActiveOrder(ctx context.Context, tx store.Factory, resourceID string) error {
	active, err := tx.Orders().List(ctx, &model.OrderQuery{
		ResourceID: resourceID,
		States:     model.ActiveOrderStates,
	})
	if err != nil {
		return err
	}
	if len(active) > 0 {
		return errors.WithStack(code.ErrActiveOrderExists.WithResult(
			fmt.Sprintf("order %s is %s", active[0].ID, active[0].State)))
	}
	return nil
}

// checkResourceState allows UPDATE on OK resources and TERMINATE on OK or ERRED ones.
func checkResourceState(r *model.Resource, t model.OrderType) error {
	switch {
	case t == model.OrderUpdate && r.State == model.ResourceOK:
		return nil
	case t == model.OrderTerminate && (r.State == model.ResourceOK || r.State == model.ResourceErred):
		return nil
	}
	return errors.WithStack(code.ErrIncorrectState.WithResult(
		fmt.Sprintf("%s order is not allowed for %s resource %s", t, r.State, r.ID)))
}
