package mysql

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace/internal/code"
	"marketplace/internal/model"
)

type resource struct {
	db *gorm.DB
}

func (r *resource) Create(ctx context.Context, m *model.Resource) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(m).Error)
}

func (r *resource) Get(ctx context.Context, id string) (*model.Resource, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *resource) GetForUpdate(ctx context.Context, id string) (*model.Resource, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *resource) first(query *gorm.DB, id string) (*model.Resource, error) {
	var m model.Resource
	if err := query.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithStack(code.ErrResourceNotFound.WithResult(id))
		}
		return nil, errors.WithStack(err)
	}
	return &m, nil
}

func (r *resource) Save(ctx context.Context, m *model.Resource) error {
	return errors.WithStack(r.db.WithContext(ctx).Model(m).Select("*").Omit("created_at").Updates(m).Error)
}

func (r *resource) List(ctx context.Context, q *model.ResourceQuery) ([]*model.Resource, error) {
	query := r.db.WithContext(ctx).Model(&model.Resource{})
	if q.ProjectID != "" {
		query = query.Where("project_id = ?", q.ProjectID)
	}
	if q.OfferingID != "" {
		query = query.Where("offering_id = ?", q.OfferingID)
	}
	if q.OfferingType != "" {
		query = query.Where("offering_type = ?", q.OfferingType)
	}
	if len(q.States) > 0 {
		query = query.Where("state IN ?", q.States)
	}
	if q.UpdatedBefore != nil {
		query = query.Where("updated_at < ?", *q.UpdatedBefore)
	}
	query = q.Pagination.Build(query)
	query = q.Sort.Build(query)

	var list []*model.Resource
	if err := query.Find(&list).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return list, nil
}
