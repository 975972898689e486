package order

import (
	"context"

	"github.com/gin-gonic/gin"

	"marketplace/internal/controllers"
	"marketplace/internal/model"
	"marketplace/internal/request"
	"marketplace/internal/response"
	"marketplace/internal/service"
	"marketplace/internal/service/callback"
	srv "marketplace/internal/service/order"
	"marketplace/pkg/resp"
	"marketplace/pkg/utils/v"
)

type OrderController struct {
	srv service.Service
}

func NewOrderController(srv service.Service) *OrderController {
	return &OrderController{srv: srv}
}

// Submit POST /v1/orders
func (o *OrderController) Submit(c *gin.Context) {
	ctx := c.Request.Context()
	var req srv.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ErrorParam(c, err)
		return
	}
	result, err := o.srv.Orders().Submit(ctx, &req, controllers.Actor(ctx))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Created(c, result)
}

// Get GET /v1/orders/:id
func (o *OrderController) Get(c *gin.Context) {
	result, err := o.srv.Orders().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Success(c, result)
}

// List GET /v1/orders
func (o *OrderController) List(c *gin.Context) {
	var req request.OrderListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resp.ErrorParam(c, err)
		return
	}
	result, err := o.srv.Orders().List(c.Request.Context(), &req.OrderQuery)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Success(c, &resp.List{Total: req.Total, Items: result})
}

type reviewFunc func(ctx context.Context, orderID string, actor *srv.Actor) (*model.Order, error)

func (o *OrderController) review(c *gin.Context, fn reviewFunc) {
	ctx := c.Request.Context()
	result, err := fn(ctx, c.Param("id"), controllers.Actor(ctx))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Success(c, result)
}

// ApproveByConsumer POST /v1/orders/:id/approve_by_consumer
func (o *OrderController) ApproveByConsumer(c *gin.Context) {
	o.review(c, o.srv.Orders().ApproveByConsumer)
}

// ApproveByProvider POST /v1/orders/:id/approve_by_provider
func (o *OrderController) ApproveByProvider(c *gin.Context) {
	o.review(c, o.srv.Orders().ApproveByProvider)
}

// Reject POST /v1/orders/:id/reject
func (o *OrderController) Reject(c *gin.Context) {
	o.review(c, o.srv.Orders().Reject)
}

// Cancel POST /v1/orders/:id/cancel
func (o *OrderController) Cancel(c *gin.Context) {
	o.review(c, o.srv.Orders().Cancel)
}

// SetState POST /v1/orders/:id/set_state is the provider webhook.
func (o *OrderController) SetState(c *gin.Context) {
	ctx := c.Request.Context()
	var req request.SetOrderStateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ErrorParam(c, err)
		return
	}
	id := c.Param("id")
	if err := o.srv.Authenticate().AuthenticateOrder(ctx, id, c.GetHeader(v.HeaderSecretCode)); err != nil {
		resp.Error(c, err)
		return
	}
	out, err := o.srv.Callbacks().SetOrderState(ctx, id, &callback.StateReport{
		State:        req.State,
		ErrorMessage: req.ErrorMessage,
		BackendID:    req.BackendID,
		Metadata:     req.BackendMetadata,
	})
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Success(c, response.NewOutcome(out))
}
