package sweep

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"marketplace/internal/metrics"
	"marketplace/internal/model"
	"marketplace/internal/service/callback"
	"marketplace/internal/store"
	"marketplace/pkg/job"
	"marketplace/pkg/logger"
	"marketplace/pkg/storage"
)

// Sweeper errs resources left in a transitional state longer than the timeout.
type Sweeper struct {
	store    store.Factory
	callback callback.CallbackSrv
	timeout  time.Duration
	now      func() time.Time
}

type Option func(*Sweeper)

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

func New(f store.Factory, cb callback.CallbackSrv, timeout time.Duration, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:    f,
		callback: cb,
		timeout:  timeout,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep returns the ids of the resources it moved to ERRED. A late callback
// that moved a resource after it was listed wins; the row is re-checked under its lock.
func (s *Sweeper) Sweep(ctx context.Context) ([]string, error) {
	cutoff := s.now().Add(-s.timeout)
	stuck, err := s.store.Resources().List(ctx, &model.ResourceQuery{
		ListQuery: storage.ListQuery{Pagination: storage.Pagination{PageSize: -1}},
		States: []model.ResourceState{
			model.ResourceCreating,
			model.ResourceUpdating,
			model.ResourceTerminating,
		},
		UpdatedBefore: &cutoff,
	})
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Resource is stuck: no backend report for %s.", s.timeout)
	var swept []string
	for _, r := range stuck {
		out, err := s.callback.FailStuck(ctx, r.ID, cutoff, msg)
		if err != nil {
			logger.From(ctx).Error("sweep resource",
				zap.String("resource_id", r.ID),
				zap.Error(err))
			continue
		}
		if !out.Applied {
			continue
		}
		metrics.SweptResources.Inc()
		logger.From(ctx).Warn("resource swept",
			zap.String("resource_id", r.ID),
			zap.String("state", string(r.State)),
			zap.Time("updated_at", r.UpdatedAt))
		swept = append(swept, r.ID)
	}
	return swept, nil
}

// Job wraps Sweep for the scheduler.
func (s *Sweeper) Job() job.Job {
	return job.Singleton(job.FuncJob{
		Name: "marketplace.sweep",
		Desc: "fail resources stuck in a transitional state",
		Fn: func(ctx context.Context) {
			if _, err := s.Sweep(ctx); err != nil {
				logger.From(ctx).Error("sweep", zap.Error(err))
			}
		},
	})
}
