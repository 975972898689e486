package memory

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"marketplace/internal/code"
	"marketplace/internal/model"
	"marketplace/pkg/storage"
)

type customers struct {
	v *view
}

func (c *customers) Get(_ context.Context, id string) (*model.Customer, error) {
	var out *model.Customer
	c.v.read(func() {
		if m, ok := c.v.s.customers[id]; ok {
			cp := *m
			out = &cp
		}
	})
	if out == nil {
		return nil, errors.WithStack(code.ErrCustomerNotFound.WithResult(id))
	}
	return out, nil
}

func (c *customers) Save(_ context.Context, m *model.Customer) error {
	return c.v.write(func(undo func(func())) error {
		table := c.v.s.customers
		if m.ID == "" {
			m.ID = storage.NewUUID()
		}
		now := c.v.s.now()
		prev, ok := table[m.ID]
		if ok {
			m.CreatedAt = prev.CreatedAt
		} else {
			m.CreatedAt = now
		}
		m.UpdatedAt = now
		cp := *m
		table[m.ID] = &cp
		undo(func() {
			if ok {
				table[m.ID] = prev
			} else {
				delete(table, cp.ID)
			}
		})
		return nil
	})
}

type offerings struct {
	v *view
}

func (o *offerings) Get(_ context.Context, id string) (*model.Offering, error) {
	var out *model.Offering
	o.v.read(func() {
		if m, ok := o.v.s.offerings[id]; ok {
			cp := *m
			out = &cp
		}
	})
	if out == nil {
		return nil, errors.WithStack(code.ErrOfferingNotFound.WithResult(id))
	}
	return out, nil
}

func (o *offerings) List(context.Context) ([]*model.Offering, error) {
	var list []*model.Offering
	o.v.read(func() {
		for _, m := range o.v.s.offerings {
			cp := *m
			list = append(list, &cp)
		}
	})
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list, nil
}

func (o *offerings) Save(_ context.Context, m *model.Offering) error {
	return o.v.write(func(undo func(func())) error {
		table := o.v.s.offerings
		if m.ID == "" {
			m.ID = storage.NewUUID()
		}
		now := o.v.s.now()
		prev, ok := table[m.ID]
		if ok {
			m.CreatedAt = prev.CreatedAt
		} else {
			m.CreatedAt = now
		}
		m.UpdatedAt = now
		cp := *m
		table[m.ID] = &cp
		undo(func() {
			if ok {
				table[cp.ID] = prev
			} else {
				delete(table, cp.ID)
			}
		})
		return nil
	})
}

type plans struct {
	v *view
}

func (p *plans) Get(_ context.Context, id string) (*model.Plan, error) {
	var out *model.Plan
	p.v.read(func() {
		if m, ok := p.v.s.plans[id]; ok {
			cp := *m
			out = &cp
		}
	})
	if out == nil {
		return nil, errors.WithStack(code.ErrPlanNotFound.WithResult(id))
	}
	return out, nil
}

func (p *plans) ListByOffering(_ context.Context, offeringID string) ([]*model.Plan, error) {
	var list []*model.Plan
	p.v.read(func() {
		for _, m := range p.v.s.plans {
			if m.OfferingID == offeringID {
				cp := *m
				list = append(list, &cp)
			}
		}
	})
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list, nil
}

func (p *plans) Save(_ context.Context, m *model.Plan) error {
	return p.v.write(func(undo func(func())) error {
		table := p.v.s.plans
		if m.ID == "" {
			m.ID = storage.NewUUID()
		}
		now := p.v.s.now()
		prev, ok := table[m.ID]
		if ok {
			m.CreatedAt = prev.CreatedAt
		} else {
			m.CreatedAt = now
		}
		m.UpdatedAt = now
		cp := *m
		table[m.ID] = &cp
		undo(func() {
			if ok {
				table[cp.ID] = prev
			} else {
				delete(table, cp.ID)
			}
		})
		return nil
	})
}
