package memory

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"marketplace/internal/code"
	"marketplace/internal/model"
	"marketplace/pkg/storage"
)

type orders struct {
	v *view
}

func (o *orders) Create(_ context.Context, m *model.Order) error {
	return o.v.write(func(undo func(func())) error {
		table := o.v.s.orders
		if m.ID == "" {
			m.ID = storage.NewUUID()
		}
		if _, ok := table[m.ID]; ok {
			return errors.Errorf("order %s already exists", m.ID)
		}
		m.CreatedAt = o.v.s.now()
		m.UpdatedAt = m.CreatedAt
		table[m.ID] = m.Clone()
		id := m.ID
		undo(func() {
			delete(table, id)
		})
		return nil
	})
}

func (o *orders) Get(_ context.Context, id string) (*model.Order, error) {
	var out *model.Order
	o.v.read(func() {
		if m, ok := o.v.s.orders[id]; ok {
			out = m.Clone()
		}
	})
	if out == nil {
		return nil, errors.WithStack(code.ErrOrderNotFound.WithResult(id))
	}
	return out, nil
}

func (o *orders) GetForUpdate(ctx context.Context, id string) (*model.Order, error) {
	return o.Get(ctx, id)
}

func (o *orders) Save(_ context.Context, m *model.Order) error {
	return o.v.write(func(undo func(func())) error {
		table := o.v.s.orders
		prev, ok := table[m.ID]
		if !ok {
			return errors.WithStack(code.ErrNoUpdate.WithResult(m.ID))
		}
		m.CreatedAt = prev.CreatedAt
		m.UpdatedAt = o.v.s.now()
		table[m.ID] = m.Clone()
		undo(func() {
			table[prev.ID] = prev
		})
		return nil
	})
}

func (o *orders) List(_ context.Context, q *model.OrderQuery) ([]*model.Order, error) {
	var list []*model.Order
	o.v.read(func() {
		for _, m := range o.v.s.orders {
			if matchOrder(m, q) {
				list = append(list, m.Clone())
			}
		}
	})
	sort.Slice(list, func(i, j int) bool {
		return newerFirst(list[i].CreatedAt, list[j].CreatedAt, list[i].ID, list[j].ID)
	})
	start, end := q.Pagination.Window(len(list))
	return list[start:end], nil
}

func matchOrder(m *model.Order, q *model.OrderQuery) bool {
	if q.ResourceID != "" && m.ResourceID != q.ResourceID {
		return false
	}
	if q.ProjectID != "" && m.ProjectID != q.ProjectID {
		return false
	}
	if len(q.Types) > 0 {
		found := false
		for _, t := range q.Types {
			if m.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(q.States) == 0 {
		return true
	}
	for _, s := range q.States {
		if m.State == s {
			return true
		}
	}
	return false
}
