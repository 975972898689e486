package mysql

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace/internal/code"
	"marketplace/internal/model"
)

type order struct {
	db *gorm.DB
}

func (o *order) Create(ctx context.Context, m *model.Order) error {
	return errors.WithStack(o.db.WithContext(ctx).Create(m).Error)
}

func (o *order) Get(ctx context.Context, id string) (*model.Order, error) {
	return o.first(o.db.WithContext(ctx), id)
}

func (o *order) GetForUpdate(ctx context.Context, id string) (*model.Order, error) {
	return o.first(o.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (o *order) first(query *gorm.DB, id string) (*model.Order, error) {
	var m model.Order
	if err := query.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithStack(code.ErrOrderNotFound.WithResult(id))
		}
		return nil, errors.WithStack(err)
	}
	return &m, nil
}

func (o *order) Save(ctx context.Context, m *model.Order) error {
	return errors.WithStack(o.db.WithContext(ctx).Model(m).Select("*").Omit("created_at").Updates(m).Error)
}

func (o *order) List(ctx context.Context, q *model.OrderQuery) ([]*model.Order, error) {
	query := o.db.WithContext(ctx).Model(&model.Order{})
	if q.ResourceID != "" {
		query = query.Where("resource_id = ?", q.ResourceID)
	}
	if q.ProjectID != "" {
		query = query.Where("project_id = ?", q.ProjectID)
	}
	if len(q.Types) > 0 {
		query = query.Where("type IN ?", q.Types)
	}
	if len(q.States) > 0 {
		query = query.Where("state IN ?", q.States)
	}
	query = q.Pagination.Build(query)
	query = q.Sort.Build(query)

	var list []*model.Order
	if err := query.Find(&list).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return list, nil
}
