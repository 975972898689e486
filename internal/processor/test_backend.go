package processor

import (
	"context"
	"fmt"

	cmap "github.com/orcaman/concurrent-map"
	uuid "github.com/satori/go.uuid"

	"marketplace/internal/model"
)

const TestBackendType = "TestBackend"

// Order attributes understood by TestBackend.
const (
	// AttrFail makes the action fail with the attribute value as message.
	AttrFail = "fail"
	// AttrBackendID forces the backend id assigned on create.
	AttrBackendID = "backend_id"
)

// TestBackend completes every action synchronously against an in-process object table.
type TestBackend struct {
	objects cmap.ConcurrentMap
}

func NewTestBackend() *TestBackend {
	return &TestBackend{objects: cmap.New()}
}

type testObject struct {
	planID string
	limits model.Limits
}

func (*TestBackend) Name() string {
	return TestBackendType
}

func (t *TestBackend) Create(_ context.Context, _ *model.Resource, order *model.Order, _ string) (*Result, error) {
	if err := injectedFailure(order); err != nil {
		return nil, err
	}
	backendID, _ := order.Attributes[AttrBackendID].(string)
	if backendID == "" {
		backendID = "tb-" + uuid.NewV4().String()
	}
	t.objects.Set(backendID, &testObject{planID: order.PlanID, limits: order.Limits.Clone()})
	return &Result{
		BackendID: backendID,
		Metadata:  map[string]interface{}{"runtime_state": "online"},
	}, nil
}

func (t *TestBackend) Update(_ context.Context, resource *model.Resource, order *model.Order, _ string) (*Result, error) {
	if err := injectedFailure(order); err != nil {
		return nil, err
	}
	if !t.objects.Has(resource.BackendID) {
		return nil, NewBackendError("object %s does not exist", resource.BackendID)
	}
	obj := &testObject{planID: resource.PlanID, limits: resource.Limits.Clone()}
	if order.PlanID != "" {
		obj.planID = order.PlanID
	}
	if order.Limits != nil {
		obj.limits = order.Limits.Clone()
	}
	t.objects.Set(resource.BackendID, obj)
	return &Result{}, nil
}

func (t *TestBackend) Delete(_ context.Context, resource *model.Resource, order *model.Order, _ string) (*Result, error) {
	if err := injectedFailure(order); err != nil {
		return nil, err
	}
	t.objects.Remove(resource.BackendID)
	return &Result{}, nil
}

func (t *TestBackend) Pull(_ context.Context, resource *model.Resource) (*Imported, error) {
	v, ok := t.objects.Get(resource.BackendID)
	if !ok {
		return nil, ErrBackendObjectNotFound
	}
	obj := v.(*testObject)
	return &Imported{
		Name:         resource.Name,
		BackendID:    resource.BackendID,
		RuntimeState: "online",
		Attributes:   map[string]interface{}{"backend_plan_id": obj.planID},
	}, nil
}

// Forget drops a backend object behind the marketplace's back.
func (t *TestBackend) Forget(backendID string) {
	t.objects.Remove(backendID)
}

func (t *TestBackend) Count() int {
	return t.objects.Count()
}

func injectedFailure(order *model.Order) error {
	if order == nil {
		return nil
	}
	if msg, ok := order.Attributes[AttrFail]; ok {
		return NewBackendError("%s", fmt.Sprint(msg))
	}
	return nil
}
