package model

import (
	"time"

	"marketplace/pkg/storage"
)

// Order is a request to create, update or terminate a Resource.
type Order struct {
	storage.Base
	Type       OrderType  `json:"type" gorm:"type:varchar(16);not null"`
	ResourceID string     `json:"resource_id" gorm:"type:char(36);index:idx_order_resource_state,priority:1"`
	OfferingID string     `json:"offering_id" gorm:"type:char(36);not null"`
	ProjectID  string     `json:"project_id" gorm:"type:varchar(64);not null;index"`
	PlanID     string     `json:"plan_id" gorm:"type:char(36)"`
	Limits     Limits     `json:"limits" gorm:"type:json"`
	Attributes Attributes `json:"attributes" gorm:"type:json"`
	// OldPlanID and OldLimits hold the resource values at submission of an UPDATE.
	OldPlanID string     `json:"old_plan_id,omitempty" gorm:"type:char(36)"`
	OldLimits Limits     `json:"old_limits,omitempty" gorm:"type:json"`
	State     OrderState `json:"state" gorm:"type:varchar(20);not null;index:idx_order_resource_state,priority:2"`

	CreatedBy          string     `json:"created_by" gorm:"type:varchar(64);not null"`
	ConsumerReviewedBy string     `json:"consumer_reviewed_by,omitempty" gorm:"type:varchar(64)"`
	ProviderReviewedBy string     `json:"provider_reviewed_by,omitempty" gorm:"type:varchar(64)"`
	RequestComment     string     `json:"request_comment,omitempty" gorm:"type:text"`
	ErrorMessage       string     `json:"error_message" gorm:"type:text"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

func (Order) TableName() string {
	return "marketplace_order"
}

func (o *Order) Clone() *Order {
	c := *o
	c.Limits = o.Limits.Clone()
	c.OldLimits = o.OldLimits.Clone()
	c.Attributes = o.Attributes.Clone()
	if o.CompletedAt != nil {
		at := *o.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

// ChangesPlan reports whether an UPDATE order switches the plan.
func (o *Order) ChangesPlan() bool {
	return o.PlanID != "" && o.PlanID != o.OldPlanID
}

// ChangesLimits reports whether an UPDATE order sets new limits.
func (o *Order) ChangesLimits() bool {
	return o.Limits != nil && !o.Limits.Equal(o.OldLimits)
}

type OrderQuery struct {
	storage.ListQuery
	ResourceID string       `form:"resource_id"`
	ProjectID  string       `form:"project_id"`
	Types      []OrderType  `form:"type"`
	States     []OrderState `form:"state"`
}
