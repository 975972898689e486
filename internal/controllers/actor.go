package controllers

import (
	"context"

	"marketplace/internal/ctxw"
	"marketplace/internal/service/order"
)

// Actor builds the order actor from the identity CheckHeaders stored in ctx.
func Actor(ctx context.Context) *order.Actor {
	approver := ctxw.GetApprover(ctx)
	return &order.Actor{
		ID:               ctxw.GetUserID(ctx),
		ConsumerApprover: approver.Consumer,
		ProviderApprover: approver.Provider,
	}
}
