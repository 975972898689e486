package processor

import (
	"context"
	"errors"
	"fmt"

	"marketplace/internal/model"
)

//go:generate mockgen -source=./processor.go -destination=./mock_processor.go -package=processor

// ErrBackendObjectNotFound is returned by Puller when the backend no longer knows the object.
var ErrBackendObjectNotFound = errors.New("backend object not found")

// Result is what a backend reports for one action. A Pending result means
// the outcome will arrive later through the callback channels.
type Result struct {
	BackendID string
	Metadata  map[string]interface{}
	Pending   bool
}

// Imported is the backend view of a resource returned by a pull.
type Imported struct {
	Name         string
	BackendID    string
	RuntimeState string
	Attributes   map[string]interface{}
}

// Processor is a backend driver. Two processors with the same name are the same driver.
type Processor interface {
	Name() string
}

type Creator interface {
	Processor
	Create(ctx context.Context, resource *model.Resource, order *model.Order, actor string) (*Result, error)
}

type Updater interface {
	Processor
	Update(ctx context.Context, resource *model.Resource, order *model.Order, actor string) (*Result, error)
}

type Deleter interface {
	Processor
	Delete(ctx context.Context, resource *model.Resource, order *model.Order, actor string) (*Result, error)
}

// Puller reads the current backend state of a resource.
type Puller interface {
	Pull(ctx context.Context, resource *model.Resource) (*Imported, error)
}

// BackendError is a failure reported by, or talking to, the external system.
type BackendError struct {
	Message string
	Err     error
}

func NewBackendError(format string, args ...interface{}) *BackendError {
	return &BackendError{Message: fmt.Sprintf(format, args...)}
}

func (e *BackendError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// ErrorMessage is the human readable text recorded on an erred order or resource.
func ErrorMessage(err error) string {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}
