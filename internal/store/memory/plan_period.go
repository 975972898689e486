package memory

import (
	"context"
	"sort"

	"marketplace/internal/model"
	"marketplace/pkg/idx"
)

type periods struct {
	v *view
}

func copyPeriod(m *model.ResourcePlanPeriod) *model.ResourcePlanPeriod {
	cp := *m
	if m.End != nil {
		end := *m.End
		cp.End = &end
	}
	return &cp
}

func (p *periods) Create(_ context.Context, m *model.ResourcePlanPeriod) error {
	if m.ID == 0 {
		id, err := idx.NextID()
		if err != nil {
			return err
		}
		m.ID = id
	}
	return p.v.write(func(undo func(func())) error {
		table := p.v.s.periods
		table[m.ID] = copyPeriod(m)
		id := m.ID
		undo(func() {
			delete(table, id)
		})
		return nil
	})
}

func (p *periods) ListOpen(_ context.Context, resourceID, planID string) ([]*model.ResourcePlanPeriod, error) {
	var list []*model.ResourcePlanPeriod
	p.v.read(func() {
		for _, m := range p.v.s.periods {
			if m.ResourceID == resourceID && m.PlanID == planID && m.End == nil {
				list = append(list, copyPeriod(m))
			}
		}
	})
	sortPeriods(list)
	return list, nil
}

func (p *periods) Save(_ context.Context, m *model.ResourcePlanPeriod) error {
	return p.v.write(func(undo func(func())) error {
		table := p.v.s.periods
		prev, ok := table[m.ID]
		table[m.ID] = copyPeriod(m)
		id := m.ID
		undo(func() {
			if ok {
				table[id] = prev
			} else {
				delete(table, id)
			}
		})
		return nil
	})
}

func (p *periods) ListByResource(_ context.Context, resourceID string) ([]*model.ResourcePlanPeriod, error) {
	var list []*model.ResourcePlanPeriod
	p.v.read(func() {
		for _, m := range p.v.s.periods {
			if m.ResourceID == resourceID {
				list = append(list, copyPeriod(m))
			}
		}
	})
	sortPeriods(list)
	return list, nil
}

func sortPeriods(list []*model.ResourcePlanPeriod) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Start.Equal(list[j].Start) {
			return list[i].ID < list[j].ID
		}
		return list[i].Start.Before(list[j].Start)
	})
}
