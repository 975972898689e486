package hook

import (
	"context"

	"go.uber.org/zap"

	"marketplace/internal/metrics"
	"marketplace/internal/model"
	"marketplace/internal/store"
)

// UsageListener keeps the project counters: one resource count per offering
// type and one total per limit component. A resource counts from the moment
// it is materialized until it is terminated.
type UsageListener struct {
	Store store.Factory
}

func (*UsageListener) Name() string {
	return "usage"
}

func (u *UsageListener) Handle(ctx context.Context, e *Event) error {
	switch e.Kind {
	case KindResourceStateChanged:
		r := e.Resource
		switch {
		case e.OldState == "" && e.NewState == model.ResourceCreating:
			return u.apply(ctx, r.ProjectID, r.OfferingType, 1, r.Limits, nil)
		case e.NewState == model.ResourceTerminated && e.OldState != model.ResourceTerminated:
			return u.apply(ctx, r.ProjectID, r.OfferingType, -1, nil, r.Limits)
		}
	case KindPlanChanged:
		r := e.Resource
		return u.apply(ctx, r.ProjectID, r.OfferingType, 0, e.PlanChange.NewLimits, e.PlanChange.OldLimits)
	}
	return nil
}

// apply adds count and the difference of the limits in one transaction, so a retried event never half applies.
func (u *UsageListener) apply(ctx context.Context, projectID, offeringType string, count int64, add, sub model.Limits) error {
	delta := make(map[string]int64, len(add)+len(sub))
	for k, v := range add {
		delta[k] += v
	}
	for k, v := range sub {
		delta[k] -= v
	}
	return u.Store.Transaction(ctx, func(tx store.Factory) error {
		if count != 0 {
			if err := tx.Usages().Add(ctx, projectID, model.ResourceCountName(offeringType), count); err != nil {
				return err
			}
		}
		for component, v := range delta {
			if v == 0 {
				continue
			}
			if err := tx.Usages().Add(ctx, projectID, model.LimitUsageName(offeringType, component), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// MetricsListener exports transitions and finished orders to prometheus.
type MetricsListener struct{}

func (MetricsListener) Name() string {
	return "metrics"
}

func (MetricsListener) Handle(_ context.Context, e *Event) error {
	switch e.Kind {
	case KindResourceStateChanged:
		from := string(e.OldState)
		if from == "" {
			from = "NONE"
		}
		metrics.ResourceTransitions.WithLabelValues(e.Resource.OfferingType, from, string(e.NewState)).Inc()
	case KindOrderCompleted, KindOrderFailed:
		metrics.OrdersFinished.WithLabelValues(string(e.Order.Type), string(e.Order.State)).Inc()
	}
	return nil
}

// LogListener records order outcomes and cleanup requests, standing in for the notification channel.
type LogListener struct {
	Log *zap.Logger
}

func (LogListener) Name() string {
	return "log"
}

func (l LogListener) Handle(_ context.Context, e *Event) error {
	switch e.Kind {
	case KindOrderCompleted:
		l.Log.Info("order completed", zap.String("order_id", e.Order.ID), zap.String("type", string(e.Order.Type)))
	case KindOrderFailed:
		l.Log.Warn("order failed",
			zap.String("order_id", e.Order.ID),
			zap.String("type", string(e.Order.Type)),
			zap.String("error_message", e.Order.ErrorMessage))
	case KindCreationFailed:
		l.Log.Warn("creation failed, backend cleanup requested",
			zap.String("resource_id", e.Resource.ID),
			zap.String("backend_id", e.Resource.BackendID))
	}
	return nil
}
