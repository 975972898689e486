package pull

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"marketplace/internal/code"
	"marketplace/internal/hook"
	"marketplace/internal/metrics"
	"marketplace/internal/model"
	"marketplace/internal/processor"
	"marketplace/internal/registry"
	"marketplace/internal/service/callback"
	"marketplace/internal/store"
	"marketplace/pkg/logger"
)

// NotFoundMarker is appended to the error message of a resource whose backend object vanished.
const NotFoundMarker = "Does not exist at backend."

// PullSrv reconciles recorded resources with what their backend reports.
type PullSrv interface {
	// Pull reads one resource from its backend and applies the outcome.
	Pull(ctx context.Context, resourceID string) (*model.Resource, error)
	HandleResourceNotFound(ctx context.Context, resourceID string) (*model.Resource, error)
	HandleResourceUpdateSuccess(ctx context.Context, resourceID string, imported *processor.Imported) (*model.Resource, error)
}

func NewPullSrv(f store.Factory, reg *registry.Registry, cb callback.CallbackSrv, hooks hook.Hooks) PullSrv {
	return &pullSrv{
		store:    f,
		registry: reg,
		callback: cb,
		hooks:    hooks,
	}
}

type pullSrv struct {
	store    store.Factory
	registry *registry.Registry
	callback callback.CallbackSrv
	hooks    hook.Hooks
}

func (p *pullSrv) Pull(ctx context.Context, resourceID string) (*model.Resource, error) {
	r, err := p.store.Resources().Get(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	puller, ok := p.registry.Puller(r.OfferingType)
	if !ok {
		return nil, errors.WithStack(code.ErrValidation.WithResult(r.OfferingType + " does not support pulling"))
	}
	if r.State == model.ResourceTerminated || r.BackendID == "" {
		return nil, errors.WithStack(code.ErrIncorrectState.WithResult("resource has no backend object to pull"))
	}
	imported, err := puller.Pull(ctx, r)
	switch {
	case errors.Is(err, processor.ErrBackendObjectNotFound):
		metrics.PulledResources.WithLabelValues("not_found").Inc()
		return p.HandleResourceNotFound(ctx, resourceID)
	case err != nil:
		metrics.PulledResources.WithLabelValues("error").Inc()
		return nil, errors.WithStack(code.ErrBackend.WithResult(processor.ErrorMessage(err)))
	}
	metrics.PulledResources.WithLabelValues("ok").Inc()
	return p.HandleResourceUpdateSuccess(ctx, resourceID, imported)
}

// HandleResourceNotFound errs the resource and appends NotFoundMarker once.
// A transitional resource is failed together with its executing order.
func (p *pullSrv) HandleResourceNotFound(ctx context.Context, resourceID string) (*model.Resource, error) {
	var (
		r            *model.Resource
		oldState     model.ResourceState
		transitional bool
	)
	err := p.store.Transaction(ctx, func(tx store.Factory) error {
		var err error
		if r, err = tx.Resources().GetForUpdate(ctx, resourceID); err != nil {
			return err
		}
		oldState = r.State
		switch r.State {
		case model.ResourceTerminated:
			return errors.WithStack(code.ErrIncorrectState.WithResult("resource is " + string(r.State)))
		case model.ResourceCreating, model.ResourceUpdating, model.ResourceTerminating:
			transitional = true
			return nil
		}
		msg := callback.AppendMessage(r.ErrorMessage, NotFoundMarker)
		if r.State == model.ResourceErred && r.RuntimeState == "" && msg == r.ErrorMessage {
			return nil
		}
		r.State = model.ResourceErred
		r.RuntimeState = ""
		r.ErrorMessage = msg
		return tx.Resources().Save(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	if transitional {
		out, err := p.callback.FailMissing(ctx, resourceID, NotFoundMarker)
		if err != nil {
			return nil, err
		}
		r = out.Resource
	} else if oldState != model.ResourceErred {
		p.hooks.OnResourceStateChanged(ctx, r.Clone(), oldState, model.ResourceErred)
	}
	logger.From(ctx).Warn("resource does not exist at backend",
		zap.String("resource_id", r.ID),
		zap.String("backend_id", r.BackendID),
		zap.String("previous_state", string(oldState)))
	return r, nil
}

// HandleResourceUpdateSuccess settles the resource to OK through the matching
// callback, then writes back imported fields when any of them differ.
func (p *pullSrv) HandleResourceUpdateSuccess(ctx context.Context, resourceID string,
	imported *processor.Imported) (*model.Resource, error) {
	if imported == nil {
		imported = &processor.Imported{}
	}
	r, err := p.store.Resources().Get(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	switch r.State {
	case model.ResourceErred:
		_, err = p.callback.Recover(ctx, resourceID)
	case model.ResourceCreating:
		_, err = p.callback.ResourceCreationSucceeded(ctx, resourceID, &processor.Result{BackendID: imported.BackendID})
	case model.ResourceUpdating:
		_, err = p.callback.ResourceUpdateSucceeded(ctx, resourceID)
	}
	if err != nil {
		return nil, err
	}
	err = p.store.Transaction(ctx, func(tx store.Factory) error {
		if r, err = tx.Resources().GetForUpdate(ctx, resourceID); err != nil {
			return err
		}
		if r.State == model.ResourceTerminated {
			return nil
		}
		if !importFields(r, imported) {
			return nil
		}
		return tx.Resources().Save(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// importFields copies differing imported values onto r and reports whether anything changed.
func importFields(r *model.Resource, imported *processor.Imported) bool {
	changed := false
	if r.State == model.ResourceOK && r.ErrorMessage != "" {
		r.ErrorMessage = ""
		changed = true
	}
	if imported.Name != "" && imported.Name != r.Name {
		r.Name = imported.Name
		changed = true
	}
	if imported.RuntimeState != r.RuntimeState {
		r.RuntimeState = imported.RuntimeState
		changed = true
	}
	if r.BackendID == "" && imported.BackendID != "" {
		r.BackendID = imported.BackendID
		changed = true
	}
	if len(imported.Attributes) > 0 {
		merged := r.Attributes.Merge(imported.Attributes)
		if !merged.Equal(r.Attributes) {
			r.Attributes = merged
			changed = true
		}
	}
	return changed
}
