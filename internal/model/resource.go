package model

import (
	"time"

	"marketplace/pkg/storage"
)

// Resource is the provisioned instance of an offering inside a project.
type Resource struct {
	storage.Base
	Name         string        `json:"name" gorm:"type:varchar(150)"`
	OfferingID   string        `json:"offering_id" gorm:"type:char(36);not null;index"`
	OfferingType string        `json:"offering_type" gorm:"type:varchar(100);not null"`
	PlanID       string        `json:"plan_id" gorm:"type:char(36)"`
	ProjectID    string        `json:"project_id" gorm:"type:varchar(64);not null;index"`
	State        ResourceState `json:"state" gorm:"type:varchar(16);not null;index:idx_resource_state_updated,priority:1"`
	RuntimeState string        `json:"runtime_state" gorm:"type:varchar(150)"`
	Limits       Limits        `json:"limits" gorm:"type:json"`
	Attributes   Attributes    `json:"attributes" gorm:"type:json"`
	BackendID    string        `json:"backend_id" gorm:"type:varchar(255)"`
	ErrorMessage string        `json:"error_message" gorm:"type:text"`
	// ScopeType and ScopeID point at the backend specific record once bound. The reference is weak.
	ScopeType string     `json:"scope_type,omitempty" gorm:"type:varchar(100)"`
	ScopeID   string     `json:"scope_id,omitempty" gorm:"type:varchar(64)"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

func (Resource) TableName() string {
	return "marketplace_resource"
}

// Clone returns a deep copy, so that callers can keep a before-image across a transition.
func (r *Resource) Clone() *Resource {
	c := *r
	c.Limits = r.Limits.Clone()
	c.Attributes = r.Attributes.Clone()
	if r.EndDate != nil {
		end := *r.EndDate
		c.EndDate = &end
	}
	return &c
}

type ResourceQuery struct {
	storage.ListQuery
	ProjectID    string          `form:"project_id"`
	OfferingID   string          `form:"offering_id"`
	OfferingType string          `form:"offering_type"`
	States       []ResourceState `form:"state"`
	// UpdatedBefore selects rows whose last modification is older than the given instant.
	UpdatedBefore *time.Time `form:"-"`
}
