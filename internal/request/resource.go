package request

import "marketplace/internal/model"

type ResourceListReq struct {
	model.ResourceQuery
}

// SyncStateReq reports a state change of the backend object bound to a resource.
type SyncStateReq struct {
	OldState     model.ResourceState `json:"old_state" binding:"required"`
	NewState     model.ResourceState `json:"new_state" binding:"required"`
	ErrorMessage string              `json:"error_message"`
}
