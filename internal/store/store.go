package store

import (
	"context"

	"marketplace/internal/model"
)

// Factory is the storage of the marketplace core.
type Factory interface {
	Customers() CustomerStore
	Offerings() OfferingStore
	Plans() PlanStore
	Resources() ResourceStore
	Orders() OrderStore
	PlanPeriods() PlanPeriodStore
	Usages() UsageStore
	// Transaction runs fc against a Factory bound to a single transaction.
	// Rows read through GetForUpdate stay locked until fc returns.
	Transaction(ctx context.Context, fc func(tx Factory) error) error
}

type CustomerStore interface {
	Get(ctx context.Context, id string) (*model.Customer, error)
	Save(ctx context.Context, c *model.Customer) error
}

type OfferingStore interface {
	Get(ctx context.Context, id string) (*model.Offering, error)
	List(ctx context.Context) ([]*model.Offering, error)
	Save(ctx context.Context, o *model.Offering) error
}

type PlanStore interface {
	Get(ctx context.Context, id string) (*model.Plan, error)
	ListByOffering(ctx context.Context, offeringID string) ([]*model.Plan, error)
	Save(ctx context.Context, p *model.Plan) error
}

type ResourceStore interface {
	Create(ctx context.Context, r *model.Resource) error
	Get(ctx context.Context, id string) (*model.Resource, error)
	// GetForUpdate reads the row and locks it for the rest of the transaction.
	GetForUpdate(ctx context.Context, id string) (*model.Resource, error)
	// Save writes every column of r and refreshes its UpdatedAt.
	Save(ctx context.Context, r *model.Resource) error
	List(ctx context.Context, query *model.ResourceQuery) ([]*model.Resource, error)
}

type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	Get(ctx context.Context, id string) (*model.Order, error)
	GetForUpdate(ctx context.Context, id string) (*model.Order, error)
	Save(ctx context.Context, o *model.Order) error
	List(ctx context.Context, query *model.OrderQuery) ([]*model.Order, error)
}

type PlanPeriodStore interface {
	Create(ctx context.Context, p *model.ResourcePlanPeriod) error
	// ListOpen returns the periods of resourceID on planID that have no end yet.
	ListOpen(ctx context.Context, resourceID, planID string) ([]*model.ResourcePlanPeriod, error)
	Save(ctx context.Context, p *model.ResourcePlanPeriod) error
	ListByResource(ctx context.Context, resourceID string) ([]*model.ResourcePlanPeriod, error)
}

// UsageStore keeps project scoped counters. Add is an atomic increment, never a read-modify-write.
type UsageStore interface {
	Add(ctx context.Context, projectID, name string, delta int64) error
	List(ctx context.Context, projectID string) ([]*model.ProjectUsage, error)
}
