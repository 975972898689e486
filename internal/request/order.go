package request

import (
	"marketplace/internal/model"
)

type OrderListReq struct {
	model.OrderQuery
}

// SetOrderStateReq is the body of the provider callback for one order.
type SetOrderStateReq struct {
	State           model.OrderState       `json:"state" binding:"required,oneof=DONE ERRED CANCELED"`
	ErrorMessage    string                 `json:"error_message"`
	BackendID       string                 `json:"backend_id"`
	BackendMetadata map[string]interface{} `json:"backend_metadata"`
}

type ReviewReq struct {
	Comment string `json:"comment"`
}
