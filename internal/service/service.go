package service

import (
	"marketplace/internal/hook"
	"marketplace/internal/registry"
	"marketplace/internal/service/authenticate"
	"marketplace/internal/service/callback"
	"marketplace/internal/service/order"
	"marketplace/internal/service/pull"
	"marketplace/internal/service/resource"
	"marketplace/internal/store"
)

// Service bundles the services behind the HTTP and queue transports.
type Service interface {
	Orders() order.OrderSrv
	Callbacks() callback.CallbackSrv
	Pull() pull.PullSrv
	Resources() resource.ResourceSrv
	Authenticate() authenticate.AuthenticateSrv
	Registry() *registry.Registry
}

type Option func(*options)

type options struct {
	order    []order.SrvOption
	callback []callback.SrvOption
}

func WithOrderOptions(opts ...order.SrvOption) Option {
	return func(o *options) {
		o.order = append(o.order, opts...)
	}
}

func WithCallbackOptions(opts ...callback.SrvOption) Option {
	return func(o *options) {
		o.callback = append(o.callback, opts...)
	}
}

func NewService(f store.Factory, reg *registry.Registry, hooks hook.Hooks, opts ...Option) Service {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	cb := callback.NewCallbackSrv(f, reg, hooks, o.callback...)
	return &service{
		orders:    order.NewOrderSrv(f, reg, cb, hooks, o.order...),
		callbacks: cb,
		pull:      pull.NewPullSrv(f, reg, cb, hooks),
		resources: resource.NewResourceSrv(f, reg),
		auth:      authenticate.NewAuthenticateSrv(f),
		registry:  reg,
	}
}

type service struct {
	orders    order.OrderSrv
	callbacks callback.CallbackSrv
	pull      pull.PullSrv
	resources resource.ResourceSrv
	auth      authenticate.AuthenticateSrv
	registry  *registry.Registry
}

func (s *service) Orders() order.OrderSrv {
	return s.orders
}

func (s *service) Callbacks() callback.CallbackSrv {
	return s.callbacks
}

func (s *service) Pull() pull.PullSrv {
	return s.pull
}

func (s *service) Resources() resource.ResourceSrv {
	return s.resources
}

func (s *service) Authenticate() authenticate.AuthenticateSrv {
	return s.auth
}

func (s *service) Registry() *registry.Registry {
	return s.registry
}
