package mysql

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace/internal/model"
)

type usage struct {
	db *gorm.DB
}

// Add upserts the counter and increments it in one statement.
func (u *usage) Add(ctx context.Context, projectID, name string, delta int64) error {
	row := &model.ProjectUsage{ProjectID: projectID, Name: name, Value: delta}
	err := u.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}, {Name: "name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value": gorm.Expr("`value` + ?", delta),
		}),
	}).Create(row).Error
	return errors.WithStack(err)
}

func (u *usage) List(ctx context.Context, projectID string) ([]*model.ProjectUsage, error) {
	var list []*model.ProjectUsage
	err := u.db.WithContext(ctx).Where("project_id = ?", projectID).Order("name").Find(&list).Error
	return list, errors.WithStack(err)
}
