package memory

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"marketplace/internal/code"
	"marketplace/internal/model"
	"marketplace/pkg/storage"
)

type resources struct {
	v *view
}

func (r *resources) Create(_ context.Context, m *model.Resource) error {
	return r.v.write(func(undo func(func())) error {
		table := r.v.s.resources
		if m.ID == "" {
			m.ID = storage.NewUUID()
		}
		if _, ok := table[m.ID]; ok {
			return errors.Errorf("resource %s already exists", m.ID)
		}
		m.CreatedAt = r.v.s.now()
		m.UpdatedAt = m.CreatedAt
		table[m.ID] = m.Clone()
		id := m.ID
		undo(func() {
			delete(table, id)
		})
		return nil
	})
}

func (r *resources) Get(_ context.Context, id string) (*model.Resource, error) {
	var out *model.Resource
	r.v.read(func() {
		if m, ok := r.v.s.resources[id]; ok {
			out = m.Clone()
		}
	})
	if out == nil {
		return nil, errors.WithStack(code.ErrResourceNotFound.WithResult(id))
	}
	return out, nil
}

// GetForUpdate needs no row lock here, the transaction mutex already excludes other writers.
func (r *resources) GetForUpdate(ctx context.Context, id string) (*model.Resource, error) {
	return r.Get(ctx, id)
}

func (r *resources) Save(_ context.Context, m *model.Resource) error {
	return r.v.write(func(undo func(func())) error {
		table := r.v.s.resources
		prev, ok := table[m.ID]
		if !ok {
			return errors.WithStack(code.ErrNoUpdate.WithResult(m.ID))
		}
		m.CreatedAt = prev.CreatedAt
		m.UpdatedAt = r.v.s.now()
		table[m.ID] = m.Clone()
		undo(func() {
			table[prev.ID] = prev
		})
		return nil
	})
}

func (r *resources) List(_ context.Context, q *model.ResourceQuery) ([]*model.Resource, error) {
	var list []*model.Resource
	r.v.read(func() {
		for _, m := range r.v.s.resources {
			if matchResource(m, q) {
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

func matchResource(m *model.Resource, q *model.ResourceQuery) bool {
	if q.ProjectID != "" && m.ProjectID != q.ProjectID {
		return false
	}
	if q.OfferingID != "" && m.OfferingID != q.OfferingID {
		return false
	}
	if q.OfferingType != "" && m.OfferingType != q.OfferingType {
		return false
	}
	if q.UpdatedBefore != nil && !m.UpdatedAt.Before(*q.UpdatedBefore) {
		return false
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
