package async

import (
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"marketplace/pkg/validator"
)

type option struct {
	manager   ManagerTaskHandler
	marshal   MarshalAPI
	json      jsoniter.API
	validator validator.Validator
	autoAck   bool
	workers   int
	log       *zap.Logger
}

type Option func(*option)

func WithManager(manager ManagerTaskHandler) Option {
	return func(o *option) {
		o.manager = manager
	}
}

func WithMarshalAPI(marshal MarshalAPI) Option {
	return func(o *option) {
		o.marshal = marshal
	}
}

func WithJSON(api jsoniter.API) Option {
	return func(o *option) {
		o.json = api
	}
}

func WithValidator(validator validator.Validator) Option {
	return func(o *option) {
		o.validator = validator
	}
}

// WithAck lets the broker acknowledge on delivery. The default is manual acknowledgement.
func WithAck(auto bool) Option {
	return func(o *option) {
		o.autoAck = auto
	}
}

// WithWorkers bounds how many deliveries are handled at once.
func WithWorkers(n int) Option {
	return func(o *option) {
		o.workers = n
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *option) {
		o.log = l
	}
}
