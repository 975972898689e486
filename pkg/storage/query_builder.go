package storage

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPageNum  = 1
	DefaultPageSize = 20
)

type Pagination struct {
	// page number, starting at 1
	PageNum int `form:"page_num,default=1" json:"page_num" binding:"omitempty,min=0"`
	// -1 returns everything
	PageSize int   `form:"page_size,default=20" json:"page_size" binding:"omitempty,min=-1"`
	Total    int64 `form:"-" json:"total"`
}

func (p *Pagination) normalize() {
	if p.PageNum <= 0 {
		p.PageNum = DefaultPageNum
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
}

// Build counts the matching rows into Total, then limits query to the requested page.
func (p *Pagination) Build(query *gorm.DB) *gorm.DB {
	query.Count(&p.Total)
	p.normalize()
	if p.PageSize < 0 {
		return query
	}
	return query.Limit(p.PageSize).Offset((p.PageNum - 1) * p.PageSize)
}

// Window records n as Total and returns the [start, end) bounds of the requested page in a slice of n items.
func (p *Pagination) Window(n int) (int, int) {
	p.Total = int64(n)
	p.normalize()
	if p.PageSize < 0 {
		return 0, n
	}
	start := (p.PageNum - 1) * p.PageSize
	if start > n {
		start = n
	}
	end := start + p.PageSize
	if end > n {
		end = n
	}
	return start, end
}

type Sort struct {
	// "field [asc|desc]" separated by commas; fields default to descending, and created_at desc is appended unless named.
	SortField string `form:"sort" json:"-" binding:"omitempty,sort"`
}

func (s *Sort) Build(query *gorm.DB) *gorm.DB {
	byCreatedAt := true
	if s.SortField != "" {
		for _, field := range strings.Split(s.SortField, ",") {
			field = strings.TrimSpace(field)
			if strings.HasPrefix(field, "created_at") {
				byCreatedAt = false
			}
			lower := strings.ToLower(field)
			if !strings.HasSuffix(lower, " asc") && !strings.HasSuffix(lower, " desc") {
				query = query.Order(fmt.Sprintf("%s desc", field))
				continue
			}
			query = query.Order(field)
		}
	}
	if byCreatedAt {
		query = query.Order("created_at desc")
	}
	return query
}

type ListQuery struct {
	Pagination
	Sort
}
