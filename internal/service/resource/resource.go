package resource

import (
	"context"

	"marketplace/internal/model"
	"marketplace/internal/registry"
	"marketplace/internal/store"
	"marketplace/pkg/replace"
)

// ResourceSrv answers read queries about resources. Secret attributes of the
// offering type are masked in everything it returns.
type ResourceSrv interface {
	Get(ctx context.Context, id string) (*model.Resource, error)
	List(ctx context.Context, query *model.ResourceQuery) ([]*model.Resource, error)
	PlanPeriods(ctx context.Context, id string) ([]*model.ResourcePlanPeriod, error)
	Usage(ctx context.Context, projectID string) ([]*model.ProjectUsage, error)
}

func NewResourceSrv(f store.Factory, reg *registry.Registry) ResourceSrv {
	return &resourceSrv{store: f, registry: reg}
}

type resourceSrv struct {
	store    store.Factory
	registry *registry.Registry
}

func (s *resourceSrv) Get(ctx context.Context, id string) (*model.Resource, error) {
	r, err := s.store.Resources().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.mask(r), nil
}

func (s *resourceSrv) List(ctx context.Context, query *model.ResourceQuery) ([]*model.Resource, error) {
	list, err := s.store.Resources().List(ctx, query)
	if err != nil {
		return nil, err
	}
	for i, r := range list {
		list[i] = s.mask(r)
	}
	return list, nil
}

func (s *resourceSrv) PlanPeriods(ctx context.Context, id string) ([]*model.ResourcePlanPeriod, error) {
	if _, err := s.store.Resources().Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.PlanPeriods().ListByResource(ctx, id)
}

func (s *resourceSrv) Usage(ctx context.Context, projectID string) ([]*model.ProjectUsage, error) {
	return s.store.Usages().List(ctx, projectID)
}

func (s *resourceSrv) mask(r *model.Resource) *model.Resource {
	keys := s.registry.SecretAttributes(r.OfferingType)
	if len(keys) == 0 || len(r.Attributes) == 0 {
		return r
	}
	r.Attributes = replace.MaskKeys(r.Attributes, keys)
	return r
}
