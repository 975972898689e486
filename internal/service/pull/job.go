package pull

import (
	"context"

	"go.uber.org/zap"

	"marketplace/internal/model"
	"marketplace/internal/registry"
	"marketplace/internal/store"
	"marketplace/pkg/job"
	"marketplace/pkg/logger"
	"marketplace/pkg/storage"
)

// NewJob pulls every OK or ERRED resource of the offering types that can be pulled.
func NewJob(srv PullSrv, reg *registry.Registry, f store.Factory) job.Job {
	return job.Singleton(job.FuncJob{
		Name: "marketplace.pull",
		Desc: "reconcile resources with their backend",
		Fn: func(ctx context.Context) {
			PullAll(ctx, srv, reg, f)
		},
	})
}

// PullAll returns how many resources were pulled without error.
func PullAll(ctx context.Context, srv PullSrv, reg *registry.Registry, f store.Factory) int {
	var pulled int
	for _, offeringType := range reg.OfferingTypes() {
		if _, ok := reg.Puller(offeringType); !ok {
			continue
		}
		resources, err := f.Resources().List(ctx, &model.ResourceQuery{
			ListQuery:    storage.ListQuery{Pagination: storage.Pagination{PageSize: -1}},
			OfferingType: offeringType,
			States:       []model.ResourceState{model.ResourceOK, model.ResourceErred},
		})
		if err != nil {
			logger.From(ctx).Error("list resources to pull", zap.String("offering_type", offeringType), zap.Error(err))
			continue
		}
		for _, r := range resources {
			if ctx.Err() != nil {
				return pulled
			}
			if r.BackendID == "" {
				continue
			}
			if _, err = srv.Pull(ctx, r.ID); err != nil {
				logger.From(ctx).Warn("pull resource", zap.String("resource_id", r.ID), zap.Error(err))
				continue
			}
			pulled++
		}
	}
	return pulled
}
