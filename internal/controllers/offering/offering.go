package offering

import (
	"github.com/gin-gonic/gin"

	"marketplace/internal/model"
	"marketplace/internal/response"
	"marketplace/internal/service"
	"marketplace/pkg/resp"
)

// Types GET /v1/offering-types
func Types(srv service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		reg := srv.Registry()
		types := reg.OfferingTypes()
		result := make([]*response.OfferingType, 0, len(types))
		for _, t := range types {
			item := &response.OfferingType{
				Type:              t,
				Components:        reg.Components(t),
				CanTerminateOrder: reg.CanCancelOrder(t),
				CanUpdateLimits:   reg.CanUpdateLimits(t),
				AvailableLimits:   reg.AvailableLimits(t),
			}
			for _, action := range []model.OrderType{model.OrderCreate, model.OrderUpdate, model.OrderTerminate} {
				if _, err := reg.Get(t, action); err == nil {
					item.Actions = append(item.Actions, action)
				}
			}
			result = append(result, item)
		}
		resp.Success(c, result)
	}
}
