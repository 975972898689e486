package resource

import (
	"github.com/gin-gonic/gin"

	"marketplace/internal/request"
	"marketplace/internal/response"
	"marketplace/internal/service"
	"marketplace/pkg/resp"
	"marketplace/pkg/utils/v"
)

type ResourceController struct {
	srv service.Service
}

func NewResourceController(srv service.Service) *ResourceController {
	return &ResourceController{srv: srv}
}

// List GET /v1/resources
func (r *ResourceController) List(c *gin.Context) {
	var req request.ResourceListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resp.ErrorParam(c, err)
		return
	}
	result, err := r.srv.Resources().List(c.Request.Context(), &req.ResourceQuery)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Success(c, &resp.List{Total: req.Total, Items: result})
}

// Get GET /v1/resources/:id
func (r *ResourceController) Get(c *gin.Context) {
	result, err := r.srv.Resources().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Success(c, result)
}

// PlanPeriods GET /v1/resources/:id/plan_periods
func (r *ResourceController) PlanPeriods(c *gin.Context) {
	result, err := r.srv.Resources().PlanPeriods(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Success(c, result)
}

// Pull POST /v1/resources/:id/pull
func (r *ResourceController) Pull(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := r.srv.Pull().Pull(ctx, c.Param("id")); err != nil {
		resp.Error(c, err)
		return
	}
	result, err := r.srv.Resources().Get(ctx, c.Param("id"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Success(c, result)
}

// SyncState POST /v1/resources/:id/sync_state lets a provider report its backend object state.
func (r *ResourceController) SyncState(c *gin.Context) {
	ctx := c.Request.Context()
	var req request.SyncStateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ErrorParam(c, err)
		return
	}
	id := c.Param("id")
	if err := r.srv.Authenticate().AuthenticateResource(ctx, id, c.GetHeader(v.HeaderSecretCode)); err != nil {
		resp.Error(c, err)
		return
	}
	out, err := r.srv.Callbacks().SyncScopeState(ctx, id, req.OldState, req.NewState, req.ErrorMessage)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Success(c, response.NewOutcome(out))
}

// Usage GET /v1/projects/:id/usage
func (r *ResourceController) Usage(c *gin.Context) {
	result, err := r.srv.Resources().Usage(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Success(c, result)
}
