package order

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"marketplace/internal/code"
	"marketplace/internal/model"
	"marketplace/internal/store"
	"marketplace/pkg/logger"
)

// review moves a pending order to state `to` inside a transaction.
func (s *orderSrv) review(ctx context.Context, orderID string, to model.OrderState,
	mutate func(o *model.Order)) (*model.Order, error) {
	var o *model.Order
	err := s.store.Transaction(ctx, func(tx store.Factory) error {
		var err error
		if o, err = tx.Orders().GetForUpdate(ctx, orderID); err != nil {
			return err
		}
		if !o.State.Pending() || !model.CanTransitOrder(o.State, to) {
			return errors.WithStack(code.ErrIncorrectState.WithResult(
				fmt.Sprintf("order %s is %s", o.ID, o.State)))
		}
		mutate(o)
		o.State = to
		if to.Terminal() {
			now := s.now()
			o.CompletedAt = &now
		}
		return tx.Orders().Save(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("order reviewed",
		zap.String("order_id", o.ID),
		zap.String("state", string(o.State)))
	return o, nil
}

func (s *orderSrv) ApproveByConsumer(ctx context.Context, orderID string, actor *Actor) (*model.Order, error) {
	o, err := s.store.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.State != model.OrderPendingConsumer {
		return nil, errors.WithStack(code.ErrIncorrectState.WithResult(
			fmt.Sprintf("order %s is %s", o.ID, o.State)))
	}
	o, err = s.review(ctx, orderID, model.OrderPendingProvider, func(o *model.Order) {
		o.ConsumerReviewedBy = actor.ID
	})
	if err != nil {
		return nil, err
	}
	if s.executeNow(o, actor) {
		return s.Process(ctx, o.ID, actor)
	}
	return o, nil
}

func (s *orderSrv) ApproveByProvider(ctx context.Context, orderID string, actor *Actor) (*model.Order, error) {
	return s.Process(ctx, orderID, actor)
}

// Reject ends a pending order. Resources are only materialized at execution,
// so a rejected CREATE leaves nothing behind.
func (s *orderSrv) Reject(ctx context.Context, orderID string, actor *Actor) (*model.Order, error) {
	return s.review(ctx, orderID, model.OrderRejected, func(o *model.Order) {
		if o.State == model.OrderPendingConsumer {
			o.ConsumerReviewedBy = actor.ID
		} else {
			o.ProviderReviewedBy = actor.ID
		}
	})
}

// Cancel is the requester withdrawing a pending order. Executing orders run to completion.
func (s *orderSrv) Cancel(ctx context.Context, orderID string, _ *Actor) (*model.Order, error) {
	return s.review(ctx, orderID, model.OrderCanceled, func(*model.Order) {})
}
