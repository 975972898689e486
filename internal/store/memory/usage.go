package memory

import (
	"context"
	"sort"

	"marketplace/internal/model"
)

type usages struct {
	v *view
}

func (u *usages) Add(_ context.Context, projectID, name string, delta int64) error {
	return u.v.write(func(undo func(func())) error {
		key := usageKey{project: projectID, name: name}
		table := u.v.s.usages
		row, ok := table[key]
		if !ok {
			row = &model.ProjectUsage{ProjectID: projectID, Name: name}
			table[key] = row
		}
		row.Value += delta
		undo(func() {
			if ok {
				row.Value -= delta
			} else {
				delete(table, key)
			}
		})
		return nil
	})
}

func (u *usages) List(_ context.Context, projectID string) ([]*model.ProjectUsage, error) {
	var list []*model.ProjectUsage
	u.v.read(func() {
		for k, m := range u.v.s.usages {
			if k.project == projectID {
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
