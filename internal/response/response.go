package response

import (
	"marketplace/internal/model"
	"marketplace/internal/registry"
	"marketplace/internal/service/callback"
)

// Outcome tells a provider whether its report changed anything.
type Outcome struct {
	Applied  bool            `json:"applied"`
	Order    *model.Order    `json:"order,omitempty"`
	Resource *model.Resource `json:"resource,omitempty"`
}

func NewOutcome(out *callback.Outcome) *Outcome {
	if out == nil {
		return &Outcome{}
	}
	return &Outcome{Applied: out.Applied, Order: out.Order, Resource: out.Resource}
}

type OfferingType struct {
	Type              string               `json:"type"`
	Components        []registry.Component `json:"components"`
	CanTerminateOrder bool                 `json:"can_terminate_order"`
	CanUpdateLimits   bool                 `json:"can_update_limits"`
	AvailableLimits   []string             `json:"available_limits"`
	Actions           []model.OrderType    `json:"actions"`
}
