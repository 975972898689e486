package memory

import (
	"context"
	"sync"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/store"
)

type Option func(*Store)

// WithClock replaces the source of CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store keeps every table in process memory. Transactions are serialized
// by a single mutex and rolled back from an undo log.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	now  func() time.Time

	customers map[string]*model.Customer
	offerings map[string]*model.Offering
	plans     map[string]*model.Plan
	resources map[string]*model.Resource
	orders    map[string]*model.Order
	periods   map[uint64]*model.ResourcePlanPeriod
	usages    map[usageKey]*model.ProjectUsage
}

type usageKey struct {
	project string
	name    string
}

func New(opts ...Option) *Store {
	s := &Store{
		now: func() time.Time {
			return time.Now().UTC()
		},
		customers: make(map[string]*model.Customer),
		offerings: make(map[string]*model.Offering),
		plans:     make(map[string]*model.Plan),
		resources: make(map[string]*model.Resource),
		orders:    make(map[string]*model.Order),
		periods:   make(map[uint64]*model.ResourcePlanPeriod),
		usages:    make(map[usageKey]*model.ProjectUsage),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Factory returns the auto-commit view of s.
func (s *Store) Factory() store.Factory {
	return &view{s: s}
}

type undoLog struct {
	entries []func()
}

func (u *undoLog) rollback() {
	for i := len(u.entries) - 1; i >= 0; i-- {
		u.entries[i]()
	}
	u.entries = nil
}

// view is a Factory either in auto-commit mode (tx == nil) or bound to a transaction.
type view struct {
	s  *Store
	tx *undoLog
}

func (v *view) Transaction(ctx context.Context, fc func(tx store.Factory) error) (err error) {
	if v.tx != nil {
		return fc(v)
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	v.s.txMu.Lock()
	defer v.s.txMu.Unlock()

	log := &undoLog{}
	defer func() {
		if r := recover(); r != nil {
			v.rollback(log)
			panic(r)
		}
	}()
	if err = fc(&view{s: v.s, tx: log}); err != nil {
		v.rollback(log)
	}
	return err
}

func (v *view) rollback(log *undoLog) {
	v.s.mu.Lock()
	log.rollback()
	v.s.mu.Unlock()
}

// read runs fn under the shared data lock.
func (v *view) read(fn func()) {
	v.s.mu.RLock()
	fn()
	v.s.mu.RUnlock()
}

// write runs fn under the exclusive data lock. Outside a transaction the
// write takes the transaction mutex as well so that it never interleaves
// with a transaction that may still roll back.
func (v *view) write(fn func(undo func(func())) error) error {
	if v.tx == nil {
		v.s.txMu.Lock()
		defer v.s.txMu.Unlock()
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(func(f func()) {
		if v.tx != nil {
			v.tx.entries = append(v.tx.entries, f)
		}
	})
}

func (v *view) Customers() store.CustomerStore {
	return &customers{v}
}

func (v *view) Offerings() store.OfferingStore {
	return &offerings{v}
}

func (v *view) Plans() store.PlanStore {
	return &plans{v}
}

func (v *view) Resources() store.ResourceStore {
	return &resources{v}
}

func (v *view) Orders() store.OrderStore {
	return &orders{v}
}

func (v *view) PlanPeriods() store.PlanPeriodStore {
	return &periods{v}
}

func (v *view) Usages() store.UsageStore {
	return &usages{v}
}

// newerFirst orders by creation time descending, then by id.
func newerFirst(ci, cj time.Time, idi, idj string) bool {
	if ci.Equal(cj) {
		return idi > idj
	}
	return ci.After(cj)
}
