// Package cache puts a read-through cache in front of the catalog stores.
// Resources, orders and counters always hit the underlying store.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"marketplace/internal/model"
	"marketplace/internal/store"
)

// New wraps f. Catalog rows are kept for ttl; a Save evicts the row.
func New(f store.Factory, ttl time.Duration) store.Factory {
	return &dataStore{
		Factory: f,
		catalog: &catalog{
			items: gocache.New(ttl, 2*ttl),
		},
	}
}

type catalog struct {
	items *gocache.Cache
	group singleflight.Group
}

// load returns the cached value of key or fills it with fn. Concurrent misses share one fn call.
func (c *catalog) load(key string, fn func() (interface{}, error)) (interface{}, error) {
	if v, ok := c.items.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		v, err := fn()
		if err != nil {
			return nil, err
		}
		c.items.SetDefault(key, v)
		return v, nil
	})
	return v, err
}

func (c *catalog) evict(keys ...string) {
	for _, key := range keys {
		c.items.Delete(key)
	}
}

type dataStore struct {
	store.Factory
	catalog *catalog
}

func (d *dataStore) Customers() store.CustomerStore {
	return &customers{next: d.Factory.Customers(), c: d.catalog}
}

func (d *dataStore) Offerings() store.OfferingStore {
	return &offerings{next: d.Factory.Offerings(), c: d.catalog}
}

func (d *dataStore) Plans() store.PlanStore {
	return &plans{next: d.Factory.Plans(), c: d.catalog}
}

func (d *dataStore) Transaction(ctx context.Context, fc func(tx store.Factory) error) error {
	return d.Factory.Transaction(ctx, func(tx store.Factory) error {
		return fc(&dataStore{Factory: tx, catalog: d.catalog})
	})
}

type customers struct {
	next store.CustomerStore
	c    *catalog
}

func (s *customers) Get(ctx context.Context, id string) (*model.Customer, error) {
	v, err := s.c.load("customer:"+id, func() (interface{}, error) {
		return s.next.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	cp := *v.(*model.Customer)
	return &cp, nil
}

func (s *customers) Save(ctx context.Context, m *model.Customer) error {
	if err := s.next.Save(ctx, m); err != nil {
		return err
	}
	s.c.evict("customer:" + m.ID)
	return nil
}

type offerings struct {
	next store.OfferingStore
	c    *catalog
}

func (s *offerings) Get(ctx context.Context, id string) (*model.Offering, error) {
	v, err := s.c.load("offering:"+id, func() (interface{}, error) {
		return s.next.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	cp := *v.(*model.Offering)
	return &cp, nil
}

func (s *offerings) List(ctx context.Context) ([]*model.Offering, error) {
	return s.next.List(ctx)
}

func (s *offerings) Save(ctx context.Context, m *model.Offering) error {
	if err := s.next.Save(ctx, m); err != nil {
		return err
	}
	s.c.evict("offering:" + m.ID)
	return nil
}

type plans struct {
	next store.PlanStore
	c    *catalog
}

func (s *plans) Get(ctx context.Context, id string) (*model.Plan, error) {
	v, err := s.c.load("plan:"+id, func() (interface{}, error) {
		return s.next.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	cp := *v.(*model.Plan)
	return &cp, nil
}

func (s *plans) ListByOffering(ctx context.Context, offeringID string) ([]*model.Plan, error) {
	return s.next.ListByOffering(ctx, offeringID)
}

func (s *plans) Save(ctx context.Context, m *model.Plan) error {
	if err := s.next.Save(ctx, m); err != nil {
		return err
	}
	s.c.evict("plan:" + m.ID)
	return nil
}
