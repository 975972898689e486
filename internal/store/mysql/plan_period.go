package mysql

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace/internal/model"
)

type planPeriod struct {
	db *gorm.DB
}

func (p *planPeriod) Create(ctx context.Context, m *model.ResourcePlanPeriod) error {
	return errors.WithStack(p.db.WithContext(ctx).Create(m).Error)
}

func (p *planPeriod) ListOpen(ctx context.Context, resourceID, planID string) ([]*model.ResourcePlanPeriod, error) {
	var list []*model.ResourcePlanPeriod
	err := p.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("resource_id = ? AND plan_id = ? AND `end` IS NULL", resourceID, planID).
		Find(&list).Error
	return list, errors.WithStack(err)
}

func (p *planPeriod) Save(ctx context.Context, m *model.ResourcePlanPeriod) error {
	return errors.WithStack(p.db.WithContext(ctx).Save(m).Error)
}

func (p *planPeriod) ListByResource(ctx context.Context, resourceID string) ([]*model.ResourcePlanPeriod, error) {
	var list []*model.ResourcePlanPeriod
	err := p.db.WithContext(ctx).Where("resource_id = ?", resourceID).Order("`start`").Find(&list).Error
	return list, errors.WithStack(err)
}
