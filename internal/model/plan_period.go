package model

import (
	"time"

	"marketplace/pkg/storage"
)

// ResourcePlanPeriod records the interval during which a resource was billed on a plan. End is nil while open.
type ResourcePlanPeriod struct {
	storage.SnowID
	ResourceID string     `json:"resource_id" gorm:"type:char(36);not null;index"`
	PlanID     string     `json:"plan_id" gorm:"type:char(36);not null"`
	Start      time.Time  `json:"start" gorm:"not null"`
	End        *time.Time `json:"end,omitempty"`
}

func (ResourcePlanPeriod) TableName() string {
	return "marketplace_resource_plan_period"
}

// ProjectUsage is an aggregated counter at project scope, such as the number of resources of an offering type.
type ProjectUsage struct {
	ProjectID string `json:"project_id" gorm:"primaryKey;type:varchar(64)"`
	Name      string `json:"name" gorm:"primaryKey;type:varchar(150)"`
	Value     int64  `json:"value" gorm:"not null;default:0"`
}

func (ProjectUsage) TableName() string {
	return "marketplace_project_usage"
}

// Usage counter names.
func ResourceCountName(offeringType string) string {
	return offeringType + ".count"
}

func LimitUsageName(offeringType, component string) string {
	return offeringType + ".limit." + component
}
