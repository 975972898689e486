package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type ManagerTaskHandler interface {
	Register(handlers ...TaskHandler)
	Unregister(names ...string)
	Run(ctx context.Context, param *Param) error
}

// TaskHandler runs the tasks of one type. Returning an error requeues the
// message unless the error is wrapped by Discard.
type TaskHandler interface {
	Name() string
	Run(ctx context.Context, param *Param) error
}

type discardError struct {
	err error
}

func (d *discardError) Error() string {
	return d.err.Error()
}

func (d *discardError) Unwrap() error {
	return d.err
}

// Discard marks err as permanent: the message is rejected without requeue.
func Discard(err error) error {
	if err == nil {
		return nil
	}
	return &discardError{err: err}
}

// IsDiscarded reports whether err was wrapped by Discard.
func IsDiscarded(err error) bool {
	var d *discardError
	return errors.As(err, &d)
}

func NewManager() ManagerTaskHandler {
	return &manager{inner: make(map[string]TaskHandler)}
}

type manager struct {
	mu    sync.RWMutex
	inner map[string]TaskHandler
}

func (m *manager) Register(handlers ...TaskHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, handler := range handlers {
		m.inner[handler.Name()] = handler
	}
}

func (m *manager) Unregister(names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		delete(m.inner, name)
	}
}

func (m *manager) Run(ctx context.Context, param *Param) error {
	m.mu.RLock()
	handler, found := m.inner[param.TaskType]
	m.mu.RUnlock()
	if !found {
		return Discard(fmt.Errorf("no handler registered for %s", param.TaskType))
	}
	return handler.Run(ctx, param)
}
