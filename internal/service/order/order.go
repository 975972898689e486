package order

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"marketplace/internal/code"
	"marketplace/internal/hook"
	"marketplace/internal/metrics"
	"marketplace/internal/model"
	"marketplace/internal/registry"
	"marketplace/internal/service/callback"
	"marketplace/internal/store"
	"marketplace/pkg/logger"
	"marketplace/pkg/syncx"
)

// Actor is the already authorized caller. The approver flags decide how far
// a submitted order moves on its own.
type Actor struct {
	ID               string
	ConsumerApprover bool
	ProviderApprover bool
}

type SubmitRequest struct {
	Type           model.OrderType  `json:"type" binding:"required,oneof=CREATE UPDATE TERMINATE"`
	OfferingID     string           `json:"offering_id"`
	PlanID         string           `json:"plan_id"`
	ProjectID      string           `json:"project_id"`
	ResourceID     string           `json:"resource_id"`
	Limits         model.Limits     `json:"limits"`
	Attributes     model.Attributes `json:"attributes"`
	RequestComment string           `json:"request_comment"`
}

// OrderSrv is the single entry point that turns orders into backend actions.
type OrderSrv interface {
	Submit(ctx context.Context, req *SubmitRequest, actor *Actor) (*model.Order, error)
	ApproveByConsumer(ctx context.Context, orderID string, actor *Actor) (*model.Order, error)
	ApproveByProvider(ctx context.Context, orderID string, actor *Actor) (*model.Order, error)
	Reject(ctx context.Context, orderID string, actor *Actor) (*model.Order, error)
	Cancel(ctx context.Context, orderID string, actor *Actor) (*model.Order, error)
	// Process claims a PENDING_PROVIDER order, calls the backend and applies its result.
	Process(ctx context.Context, orderID string, actor *Actor) (*model.Order, error)
	Get(ctx context.Context, orderID string) (*model.Order, error)
	List(ctx context.Context, query *model.OrderQuery) ([]*model.Order, error)
}

type SrvOption func(*orderSrv)

// WithAutoApprove sends every submitted order straight to execution.
func WithAutoApprove(enable bool) SrvOption {
	return func(s *orderSrv) {
		s.autoApprove = enable
	}
}

// WithLocker serializes submissions per resource across replicas.
func WithLocker(l syncx.KeyedLocker) SrvOption {
	return func(s *orderSrv) {
		s.locker = l
	}
}

func WithClock(now func() time.Time) SrvOption {
	return func(s *orderSrv) {
		s.now = now
	}
}

func NewOrderSrv(f store.Factory, reg *registry.Registry, cb callback.CallbackSrv, hooks hook.Hooks,
	opts ...SrvOption) OrderSrv {
	s := &orderSrv{
		store:    f,
		registry: reg,
		callback: cb,
		hooks:    hooks,
		locker:   syncx.NewStdKeyedLocker(),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ OrderSrv = (*orderSrv)(nil)

type orderSrv struct {
	store       store.Factory
	registry    *registry.Registry
	callback    callback.CallbackSrv
	hooks       hook.Hooks
	locker      syncx.KeyedLocker
	autoApprove bool
	now         func() time.Time
}

func (s *orderSrv) Get(ctx context.Context, orderID string) (*model.Order, error) {
	return s.store.Orders().Get(ctx, orderID)
}

func (s *orderSrv) List(ctx context.Context, query *model.OrderQuery) ([]*model.Order, error) {
	return s.store.Orders().List(ctx, query)
}

func (s *orderSrv) Submit(ctx context.Context, req *SubmitRequest, actor *Actor) (*model.Order, error) {
	var (
		o   *model.Order
		err error
	)
	switch req.Type {
	case model.OrderCreate:
		o, err = s.submitCreate(ctx, req, actor)
	case model.OrderUpdate, model.OrderTerminate:
		o, err = s.submitChange(ctx, req, actor)
	default:
		return nil, errors.WithStack(code.ErrValidation.WithResult(fmt.Sprintf("unknown order type %q", req.Type)))
	}
	if err != nil {
		return nil, err
	}
	metrics.OrdersSubmitted.WithLabelValues(string(o.Type)).Inc()
	logger.From(ctx).Info("order submitted",
		zap.String("order_id", o.ID),
		zap.String("type", string(o.Type)),
		zap.String("resource_id", o.ResourceID),
		zap.String("state", string(o.State)),
		zap.String("created_by", o.CreatedBy))
	if !s.executeNow(o, actor) {
		return o, nil
	}
	executed, err := s.Process(ctx, o.ID, actor)
	if err == nil {
		return executed, nil
	}
	// the order is stored already; report it so the requester can follow up or cancel it
	logger.From(ctx).Warn("submitted order could not be executed",
		zap.String("order_id", o.ID),
		zap.Error(err))
	return s.store.Orders().Get(ctx, o.ID)
}

func (s *orderSrv) executeNow(o *model.Order, actor *Actor) bool {
	return o.State == model.OrderPendingProvider && (s.autoApprove || actor.ProviderApprover)
}

// initialState skips the consumer review when the submitter may approve it.
func (s *orderSrv) initialState(o *model.Order, actor *Actor) {
	o.State = model.OrderPendingConsumer
	if actor.ConsumerApprover {
		o.State = model.OrderPendingProvider
		o.ConsumerReviewedBy = actor.ID
	} else if s.autoApprove {
		o.State = model.OrderPendingProvider
	}
}

func (s *orderSrv) submitCreate(ctx context.Context, req *SubmitRequest, actor *Actor) (*model.Order, error) {
	if req.ProjectID == "" {
		return nil, errors.WithStack(code.ErrValidation.WithResult("project_id is required"))
	}
	offering, err := s.acceptingOffering(ctx, s.store, req.OfferingID, model.OrderCreate)
	if err != nil {
		return nil, err
	}
	if _, err = s.registry.Creator(offering.Type); err != nil {
		return nil, err
	}
	if err = s.checkPlan(ctx, s.store, offering, req.PlanID); err != nil {
		return nil, err
	}
	if err = s.checkRequiredLimits(offering.Type, req.Limits); err != nil {
		return nil, err
	}
	o := &model.Order{
		Type:           model.OrderCreate,
		OfferingID:     offering.ID,
		ProjectID:      req.ProjectID,
		PlanID:         req.PlanID,
		Limits:         req.Limits.Clone(),
		Attributes:     req.Attributes.Clone(),
		CreatedBy:      actor.ID,
		RequestComment: req.RequestComment,
	}
	s.initialState(o, actor)
	if err = s.store.Orders().Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// submitChange runs the single active order check and the insert as one unit
// under the resource lock.
func (s *orderSrv) submitChange(ctx context.Context, req *SubmitRequest, actor *Actor) (*model.Order, error) {
	if req.ResourceID == "" {
		return nil, errors.WithStack(code.ErrValidation.WithResult("resource_id is required"))
	}
	current, err := s.store.Resources().Get(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}
	if req.OfferingID != "" && req.OfferingID != current.OfferingID {
		return nil, errors.WithStack(code.ErrValidation.WithResult("offering_id does not match the resource"))
	}
	offering, err := s.acceptingOffering(ctx, s.store, current.OfferingID, req.Type)
	if err != nil {
		return nil, err
	}
	if req.Type == model.OrderUpdate {
		if _, err = s.registry.Updater(offering.Type); err != nil {
			return nil, err
		}
		if err = s.checkPlan(ctx, s.store, offering, req.PlanID); err != nil {
			return nil, err
		}
	} else if _, err = s.registry.Deleter(offering.Type); err != nil {
		return nil, err
	}

	locker := s.locker.Locker(ctx, resourceLockKey(req.ResourceID))
	if err = locker.Lock(); err != nil {
		return nil, errors.Wrapf(err, "lock resource %s", req.ResourceID)
	}
	defer func() {
		if err := locker.Unlock(); err != nil {
			logger.From(ctx).Warn("unlock resource", zap.String("resource_id", req.ResourceID), zap.Error(err))
		}
	}()

	var o *model.Order
	err = s.store.Transaction(ctx, func(tx store.Factory) error {
		r, err := tx.Resources().GetForUpdate(ctx, req.ResourceID)
		if err != nil {
			return err
		}
		if err = ensureNoActiveOrder(ctx, tx, r.ID); err != nil {
			return err
		}
		if err = checkResourceState(r, req.Type); err != nil {
			return err
		}
		o = &model.Order{
			Type:           req.Type,
			ResourceID:     r.ID,
			OfferingID:     r.OfferingID,
			ProjectID:      r.ProjectID,
			PlanID:         r.PlanID,
			Attributes:     req.Attributes.Clone(),
			CreatedBy:      actor.ID,
			RequestComment: req.RequestComment,
		}
		if req.Type == model.OrderUpdate {
			if err = s.fillUpdate(o, r, req); err != nil {
				return err
			}
		}
		s.initialState(o, actor)
		return tx.Orders().Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *orderSrv) fillUpdate(o *model.Order, r *model.Resource, req *SubmitRequest) error {
	o.OldPlanID = r.PlanID
	o.OldLimits = r.Limits.Clone()
	if req.PlanID != "" {
		o.PlanID = req.PlanID
	}
	if req.Limits != nil {
		o.Limits = req.Limits.Clone()
	}
	if o.ChangesLimits() {
		if err := s.checkLimitUpdate(r.OfferingType, req.Limits); err != nil {
			return err
		}
	}
	if !o.ChangesPlan() && !o.ChangesLimits() {
		return errors.WithStack(code.ErrValidation.WithResult("update changes neither plan nor limits"))
	}
	return nil
}

func resourceLockKey(resourceID string) string {
	return "resource:" + resourceID
}
