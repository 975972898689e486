package mysql

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"marketplace/internal/model"
	"marketplace/internal/store"
	"marketplace/pkg/storage"
)

// New returns a Factory over db.
func New(db *storage.DB) store.Factory {
	return &dataStore{db: db.DB}
}

// AutoMigrate creates or alters the marketplace tables.
func AutoMigrate(ctx context.Context, db *storage.DB) error {
	return errors.WithStack(db.WithContext(ctx).AutoMigrate(
		&model.Customer{},
		&model.Offering{},
		&model.Plan{},
		&model.Resource{},
		&model.Order{},
		&model.ResourcePlanPeriod{},
		&model.ProjectUsage{},
	))
}

type dataStore struct {
	db *gorm.DB
}

func (d *dataStore) Transaction(ctx context.Context, fc func(tx store.Factory) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fc(&dataStore{db: tx})
	})
}

func (d *dataStore) Customers() store.CustomerStore {
	return &customer{db: d.db}
}

func (d *dataStore) Offerings() store.OfferingStore {
	return &offering{db: d.db}
}

func (d *dataStore) Plans() store.PlanStore {
	return &plan{db: d.db}
}

func (d *dataStore) Resources() store.ResourceStore {
	return &resource{db: d.db}
}

func (d *dataStore) Orders() store.OrderStore {
	return &order{db: d.db}
}

func (d *dataStore) PlanPeriods() store.PlanPeriodStore {
	return &planPeriod{db: d.db}
}

func (d *dataStore) Usages() store.UsageStore {
	return &usage{db: d.db}
}
