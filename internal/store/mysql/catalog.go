package mysql

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"marketplace/internal/code"
	"marketplace/internal/model"
)

type customer struct {
	db *gorm.DB
}

func (c *customer) Get(ctx context.Context, id string) (*model.Customer, error) {
	var m model.Customer
	if err := c.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithStack(code.ErrCustomerNotFound.WithResult(id))
		}
		return nil, errors.WithStack(err)
	}
	return &m, nil
}

func (c *customer) Save(ctx context.Context, m *model.Customer) error {
	return errors.WithStack(c.db.WithContext(ctx).Save(m).Error)
}

type offering struct {
	db *gorm.DB
}

func (o *offering) Get(ctx context.Context, id string) (*model.Offering, error) {
	var m model.Offering
	if err := o.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithStack(code.ErrOfferingNotFound.WithResult(id))
		}
		return nil, errors.WithStack(err)
	}
	return &m, nil
}

func (o *offering) List(ctx context.Context) ([]*model.Offering, error) {
	var list []*model.Offering
	if err := o.db.WithContext(ctx).Order("name").Find(&list).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return list, nil
}

func (o *offering) Save(ctx context.Context, m *model.Offering) error {
	return errors.WithStack(o.db.WithContext(ctx).Save(m).Error)
}

type plan struct {
	db *gorm.DB
}

func (p *plan) Get(ctx context.Context, id string) (*model.Plan, error) {
	var m model.Plan
	if err := p.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithStack(code.ErrPlanNotFound.WithResult(id))
		}
		return nil, errors.WithStack(err)
	}
	return &m, nil
}

func (p *plan) ListByOffering(ctx context.Context, offeringID string) ([]*model.Plan, error) {
	var list []*model.Plan
	if err := p.db.WithContext(ctx).Where("offering_id = ?", offeringID).Order("name").Find(&list).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return list, nil
}

func (p *plan) Save(ctx context.Context, m *model.Plan) error {
	return errors.WithStack(p.db.WithContext(ctx).Save(m).Error)
}
