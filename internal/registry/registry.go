package registry

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"marketplace/internal/code"
	"marketplace/internal/model"
	"marketplace/internal/processor"
)

// Component is a billable quantity declared by an offering type.
type Component struct {
	Name         string            `json:"name" binding:"component"`
	MeasuredUnit string            `json:"measured_unit"`
	BillingType  model.BillingType `json:"billing_type"`
	// LimitPeriod is the optional usage limit policy, e.g. "month" or "total".
	LimitPeriod string `json:"limit_period,omitempty"`
}

// Plugin is everything registered for one offering type. A nil processor
// means the offering type does not support that action.
type Plugin struct {
	Create     processor.Creator
	Update     processor.Updater
	Delete     processor.Deleter
	Components []Component
	// CanTerminateOrder allows the provider to cancel an executing order.
	CanTerminateOrder bool
	// AvailableLimits are the component names a consumer may set.
	AvailableLimits []string
	CanUpdateLimits bool
	// SecretAttributes are masked whenever attributes leave the service.
	SecretAttributes []string
}

// Registry maps offering types to their plugins. It is filled at startup
// and read concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]*Plugin
}

func New() *Registry {
	return &Registry{plugins: make(map[string]*Plugin)}
}

// Register binds offeringType to p. Registering the same plugin again is a no-op,
// a different plugin for a known offering type is a configuration error.
func (r *Registry) Register(offeringType string, p Plugin) error {
	if offeringType == "" {
		return errors.WithStack(code.ErrConfiguration.WithResult("empty offering type"))
	}
	if p.Create == nil && p.Update == nil && p.Delete == nil {
		return errors.WithStack(code.ErrConfiguration.WithResult(offeringType + " registers no processor"))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.plugins[offeringType]; ok {
		if samePlugin(prev, &p) {
			return nil
		}
		return errors.WithStack(code.ErrConfiguration.WithResult(offeringType + " is already registered with other processors"))
	}
	cp := p
	cp.Components = append([]Component(nil), p.Components...)
	cp.AvailableLimits = append([]string(nil), p.AvailableLimits...)
	cp.SecretAttributes = append([]string(nil), p.SecretAttributes...)
	r.plugins[offeringType] = &cp
	return nil
}

func samePlugin(a, b *Plugin) bool {
	return processorName(a.Create) == processorName(b.Create) &&
		processorName(a.Update) == processorName(b.Update) &&
		processorName(a.Delete) == processorName(b.Delete) &&
		sameComponents(a.Components, b.Components) &&
		a.CanTerminateOrder == b.CanTerminateOrder &&
		a.CanUpdateLimits == b.CanUpdateLimits &&
		sameStrings(a.AvailableLimits, b.AvailableLimits) &&
		sameStrings(a.SecretAttributes, b.SecretAttributes)
}

func processorName(p processor.Processor) string {
	if p == nil {
		return ""
	}
	return p.Name()
}

func sameComponents(a, b []Component) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (r *Registry) plugin(offeringType string) (*Plugin, error) {
	r.mu.RLock()
	p, ok := r.plugins[offeringType]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WithStack(code.ErrProcessorNotFound.WithResult(offeringType))
	}
	return p, nil
}

// Get returns the processor of offeringType for action.
func (r *Registry) Get(offeringType string, action model.OrderType) (processor.Processor, error) {
	p, err := r.plugin(offeringType)
	if err != nil {
		return nil, err
	}
	var found processor.Processor
	switch action {
	case model.OrderCreate:
		if p.Create != nil {
			found = p.Create
		}
	case model.OrderUpdate:
		if p.Update != nil {
			found = p.Update
		}
	case model.OrderTerminate:
		if p.Delete != nil {
			found = p.Delete
		}
	}
	if found == nil {
		return nil, errors.WithStack(code.ErrProcessorNotFound.WithResult(offeringType + "/" + string(action)))
	}
	return found, nil
}

func (r *Registry) Creator(offeringType string) (processor.Creator, error) {
	p, err := r.Get(offeringType, model.OrderCreate)
	if err != nil {
		return nil, err
	}
	return p.(processor.Creator), nil
}

func (r *Registry) Updater(offeringType string) (processor.Updater, error) {
	p, err := r.Get(offeringType, model.OrderUpdate)
	if err != nil {
		return nil, err
	}
	return p.(processor.Updater), nil
}

func (r *Registry) Deleter(offeringType string) (processor.Deleter, error) {
	p, err := r.Get(offeringType, model.OrderTerminate)
	if err != nil {
		return nil, err
	}
	return p.(processor.Deleter), nil
}

// Puller returns the first processor of offeringType that can read backend state.
func (r *Registry) Puller(offeringType string) (processor.Puller, bool) {
	p, err := r.plugin(offeringType)
	if err != nil {
		return nil, false
	}
	for _, candidate := range []interface{}{p.Create, p.Update, p.Delete} {
		if candidate == nil {
			continue
		}
		if puller, ok := candidate.(processor.Puller); ok {
			return puller, true
		}
	}
	return nil, false
}

func (r *Registry) Components(offeringType string) []Component {
	p, err := r.plugin(offeringType)
	if err != nil {
		return nil
	}
	return append([]Component(nil), p.Components...)
}

// RequiredLimits lists the LIMIT billed components, which every CREATE order must carry.
func (r *Registry) RequiredLimits(offeringType string) []string {
	var names []string
	for _, c := range r.Components(offeringType) {
		if c.BillingType == model.BillingLimit {
			names = append(names, c.Name)
		}
	}
	return names
}

func (r *Registry) OfferingTypes() []string {
	r.mu.RLock()
	types := make([]string, 0, len(r.plugins))
	for t := range r.plugins {
		types = append(types, t)
	}
	r.mu.RUnlock()
	sort.Strings(types)
	return types
}

func (r *Registry) CanCancelOrder(offeringType string) bool {
	p, err := r.plugin(offeringType)
	return err == nil && p.CanTerminateOrder
}

func (r *Registry) CanUpdateLimits(offeringType string) bool {
	p, err := r.plugin(offeringType)
	return err == nil && p.CanUpdateLimits
}

// AvailableLimits falls back to every LIMIT component when the plugin does not narrow it.
func (r *Registry) AvailableLimits(offeringType string) []string {
	p, err := r.plugin(offeringType)
	if err != nil {
		return nil
	}
	if len(p.AvailableLimits) > 0 {
		return append([]string(nil), p.AvailableLimits...)
	}
	return r.RequiredLimits(offeringType)
}

func (r *Registry) SecretAttributes(offeringType string) []string {
	p, err := r.plugin(offeringType)
	if err != nil {
		return nil
	}
	return append([]string(nil), p.SecretAttributes...)
}
