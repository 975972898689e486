package callback

import (
	"context"

	"go.uber.org/zap"

	"marketplace/internal/model"
	"marketplace/internal/store"
	"marketplace/pkg/logger"
)

func (c *callbackSrv) openPeriod(ctx context.Context, tx store.Factory, resourceID, planID string) error {
	return tx.PlanPeriods().Create(ctx, &model.ResourcePlanPeriod{
		ResourceID: resourceID,
		PlanID:     planID,
		Start:      c.now(),
	})
}

// closePeriods ends every open period of resourceID on planID. Finding none is logged, not failed.
func (c *callbackSrv) closePeriods(ctx context.Context, tx store.Factory, resourceID, planID string) error {
	open, err := tx.PlanPeriods().ListOpen(ctx, resourceID, planID)
	if err != nil {
		return err
	}
	if len(open) == 0 {
		logger.From(ctx).Warn("no open plan period to close",
			zap.String("resource_id", resourceID),
			zap.String("plan_id", planID))
		return nil
	}
	now := c.now()
	for _, p := range open {
		p.End = &now
		if err = tx.PlanPeriods().Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
