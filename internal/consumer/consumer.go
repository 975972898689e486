// Package consumer turns provider reports delivered over AMQP into callbacks.
package consumer

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"marketplace/internal/code"
	"marketplace/internal/model"
	"marketplace/internal/service/callback"
	"marketplace/pkg/async"
	pcode "marketplace/pkg/code"
	"marketplace/pkg/json"
	"marketplace/pkg/logger"
	"marketplace/pkg/validator"
)

const (
	TaskSetOrderState     = "order.set_state"
	TaskSyncResourceState = "resource.sync_state"
)

// OrderStateReport is the payload of TaskSetOrderState.
type OrderStateReport struct {
	OrderID         string                 `json:"order_id" binding:"required"`
	State           model.OrderState       `json:"state" binding:"required"`
	ErrorMessage    string                 `json:"error_message"`
	BackendID       string                 `json:"backend_id"`
	BackendMetadata map[string]interface{} `json:"backend_metadata"`
}

// ResourceStateReport is the payload of TaskSyncResourceState.
type ResourceStateReport struct {
	ResourceID   string              `json:"resource_id" binding:"required"`
	OldState     model.ResourceState `json:"old_state" binding:"required"`
	NewState     model.ResourceState `json:"new_state" binding:"required"`
	ErrorMessage string              `json:"error_message"`
}

// Handlers returns the task handlers backed by cb.
func Handlers(cb callback.CallbackSrv, v validator.Validator) []async.TaskHandler {
	return []async.TaskHandler{
		&orderState{callback: cb, validator: v},
		&resourceState{callback: cb, validator: v},
	}
}

type orderState struct {
	callback  callback.CallbackSrv
	validator validator.Validator
}

func (*orderState) Name() string {
	return TaskSetOrderState
}

func (h *orderState) Run(ctx context.Context, param *async.Param) error {
	var report OrderStateReport
	if err := decode(h.validator, param, &report); err != nil {
		return err
	}
	out, err := h.callback.SetOrderState(ctx, report.OrderID, &callback.StateReport{
		State:        report.State,
		ErrorMessage: report.ErrorMessage,
		BackendID:    report.BackendID,
		Metadata:     report.BackendMetadata,
	})
	if err != nil {
		return settle(err)
	}
	logger.From(ctx).Info("order state reported",
		zap.String("order", report.OrderID),
		zap.String("state", string(report.State)),
		zap.Bool("applied", out.Applied))
	return nil
}

type resourceState struct {
	callback  callback.CallbackSrv
	validator validator.Validator
}

func (*resourceState) Name() string {
	return TaskSyncResourceState
}

func (h *resourceState) Run(ctx context.Context, param *async.Param) error {
	var report ResourceStateReport
	if err := decode(h.validator, param, &report); err != nil {
		return err
	}
	out, err := h.callback.SyncScopeState(ctx, report.ResourceID, report.OldState, report.NewState, report.ErrorMessage)
	if err != nil {
		return settle(err)
	}
	logger.From(ctx).Info("resource state synced",
		zap.String("resource", report.ResourceID),
		zap.String("state", string(report.NewState)),
		zap.Bool("applied", out.Applied))
	return nil
}

func decode(v validator.Validator, param *async.Param, dst interface{}) error {
	if err := json.UnmarshalNumber(param.Data, dst); err != nil {
		return async.Discard(errors.WithStack(err))
	}
	if err := v.ValidateStruct(dst); err != nil {
		return async.Discard(errors.WithStack(code.ErrValidation.WithResult(err.Error())))
	}
	return nil
}

// settle drops reports that can never apply and requeues the rest.
func settle(err error) error {
	if errors.Is(err, code.ErrNoUpdate) {
		return err
	}
	if c, ok := pcode.As(err); ok && c.StatusCode() >= http.StatusBadRequest && c.StatusCode() < http.StatusInternalServerError {
		return async.Discard(err)
	}
	return err
}
