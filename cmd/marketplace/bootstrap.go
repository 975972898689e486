package main

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	glogger "gorm.io/gorm/logger"

	"marketplace/config"
	"marketplace/internal/code"
	"marketplace/internal/model"
	"marketplace/internal/processor"
	"marketplace/internal/registry"
	"marketplace/internal/service/authenticate"
	"marketplace/internal/store"
	"marketplace/internal/store/cache"
	"marketplace/internal/store/memory"
	"marketplace/internal/store/mysql"
	"marketplace/pkg/logger"
	"marketplace/pkg/storage"
)

// newStore opens the configured store behind the catalog cache. The returned
// close func releases the database connections.
func newStore(ctx context.Context, cfg *config.Config) (store.Factory, func() error, error) {
	var (
		f       store.Factory
		closeFn = func() error { return nil }
	)
	switch cfg.Store.Driver {
	case "", "memory":
		f = memory.New().Factory()
	case "mysql":
		db, err := storage.New(ctx,
			storage.WithUser(cfg.Mysql.User),
			storage.WithPassword(cfg.Mysql.Password),
			storage.WithIP(cfg.Mysql.Host),
			storage.WithPort(cfg.Mysql.Port),
			storage.WithDatabase(cfg.Mysql.Database),
			storage.WithCharset(cfg.Mysql.Charset),
			storage.WithMaxOpenConn(cfg.Mysql.MaxOpen),
			storage.WithMaxIdleConn(cfg.Mysql.MaxIdle),
			storage.WithMaxLifetime(cfg.Mysql.MaxLifetime),
			storage.WithLogger(storage.NewLog(glogger.Warn, cfg.Mysql.SlowThreshold)),
		)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Mysql.Migrate {
			if err = mysql.AutoMigrate(ctx, db); err != nil {
				return nil, nil, multierr.Append(err, db.Close())
			}
		}
		f = mysql.New(db)
		closeFn = db.Close
	default:
		return nil, nil, errors.WithStack(code.ErrConfiguration.WithResult("unknown store driver " + cfg.Store.Driver))
	}
	if cfg.Catalog.CacheTTL > 0 {
		f = cache.New(f, cfg.Catalog.CacheTTL)
	}
	return f, closeFn, nil
}

// newRegistry binds every configured offering type to its driver. The test
// driver is shared so all its offering types see the same backend objects.
func newRegistry(cfg *config.Config) (*registry.Registry, error) {
	reg := registry.New()
	var testBackend *processor.TestBackend
	for _, p := range cfg.Processors {
		plugin := registry.Plugin{
			CanTerminateOrder: p.CanTerminateOrder,
			AvailableLimits:   p.AvailableLimits,
			CanUpdateLimits:   p.CanUpdateLimits,
			SecretAttributes:  p.SecretAttributes,
		}
		for _, c := range p.Components {
			plugin.Components = append(plugin.Components, registry.Component{
				Name:         c.Name,
				MeasuredUnit: c.MeasuredUnit,
				BillingType:  model.BillingType(c.BillingType),
				LimitPeriod:  c.LimitPeriod,
			})
		}
		switch p.Driver {
		case "basic":
			plugin.Create, plugin.Update, plugin.Delete = processor.Basic{}, processor.Basic{}, processor.Basic{}
		case "test":
			if testBackend == nil {
				testBackend = processor.NewTestBackend()
			}
			plugin.Create, plugin.Update, plugin.Delete = testBackend, testBackend, testBackend
		case "webhook":
			if p.Endpoint == "" {
				return nil, errors.WithStack(code.ErrConfiguration.WithResult(p.Type + " webhook has no endpoint"))
			}
			w := processor.NewWebhook(p.Endpoint, cfg.Webhook.Timeout, cfg.Webhook.MaxRetries)
			plugin.Create, plugin.Update, plugin.Delete = w, w, w
		default:
			return nil, errors.WithStack(code.ErrConfiguration.WithResult("unknown processor driver " + p.Driver))
		}
		if err := reg.Register(p.Type, plugin); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// seedCatalog stores the configured customers, offerings and plans. Offerings
// of unregistered types are refused so no order can reach a missing processor.
func seedCatalog(ctx context.Context, f store.Factory, reg *registry.Registry, catalog config.Catalog) error {
	types := make(map[string]struct{})
	for _, t := range reg.OfferingTypes() {
		types[t] = struct{}{}
	}
	return f.Transaction(ctx, func(tx store.Factory) error {
		for _, c := range catalog.Customers {
			customer := &model.Customer{Name: c.Name, Blocked: c.Blocked}
			customer.ID = c.ID
			if err := tx.Customers().Save(ctx, customer); err != nil {
				return err
			}
		}
		for _, o := range catalog.Offerings {
			if _, ok := types[o.Type]; !ok {
				return errors.WithStack(code.ErrProcessorNotFound.WithResult(o.Type))
			}
			state := model.OfferingState(o.State)
			if state == "" {
				state = model.OfferingActive
			}
			offering := &model.Offering{
				Name:       o.Name,
				Type:       o.Type,
				State:      state,
				CustomerID: o.CustomerID,
			}
			if o.SecretCode != "" {
				hash, err := authenticate.HashSecret(o.SecretCode)
				if err != nil {
					return err
				}
				offering.SecretCode = hash
			}
			offering.ID = o.ID
			if err := tx.Offerings().Save(ctx, offering); err != nil {
				return err
			}
			for _, p := range o.Plans {
				plan := &model.Plan{OfferingID: offering.ID, Name: p.Name, Archived: p.Archived}
				plan.ID = p.ID
				if err := tx.Plans().Save(ctx, plan); err != nil {
					return err
				}
			}
			logger.From(ctx).Info("offering seeded", zap.String("offering_id", offering.ID), zap.String("type", o.Type))
		}
		return nil
	})
}
