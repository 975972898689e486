package processor

import (
	"context"

	"marketplace/internal/model"
)

const BasicType = "Marketplace.Basic"

// Basic leaves every action to the service provider, who reports the outcome through set_state.
type Basic struct{}

func (Basic) Name() string {
	return BasicType
}

func (Basic) Create(context.Context, *model.Resource, *model.Order, string) (*Result, error) {
	return &Result{Pending: true}, nil
}

func (Basic) Update(context.Context, *model.Resource, *model.Order, string) (*Result, error) {
	return &Result{Pending: true}, nil
}

func (Basic) Delete(context.Context, *model.Resource, *model.Order, string) (*Result, error) {
	return &Result{Pending: true}, nil
}
