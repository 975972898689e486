package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/code"
	"marketplace/internal/hook"
	"marketplace/internal/metrics"
	"marketplace/internal/model"
	"marketplace/internal/processor"
	"marketplace/internal/registry"
	"marketplace/internal/service/callback"
	"marketplace/internal/store"
	"marketplace/internal/store/memory"
)

var (
	consumer = &Actor{ID: "alice"}
	approver = &Actor{ID: "bob", ConsumerApprover: true, ProviderApprover: true}
)

type fixture struct {
	ctx     context.Context
	store   store.Factory
	reg     *registry.Registry
	backend *processor.TestBackend
	cb      callback.CallbackSrv
	srv     OrderSrv
}

func newFixture(t *testing.T, hooks hook.Hooks, opts ...SrvOption) *fixture {
	f := &fixture{
		ctx:     context.Background(),
		store:   memory.New().Factory(),
		reg:     registry.New(),
		backend: processor.NewTestBackend(),
	}
	require.NoError(t, f.reg.Register(processor.TestBackendType, registry.Plugin{
		Create: f.backend, Update: f.backend, Delete: f.backend,
		Components: []registry.Component{
			{Name: "cores", MeasuredUnit: "core", BillingType: model.BillingLimit},
			{Name: "storage", MeasuredUnit: "GB", BillingType: model.BillingUsage},
		},
		CanUpdateLimits: true,
	}))
	require.NoError(t, f.reg.Register(processor.BasicType, registry.Plugin{
		Create: processor.Basic{}, Update: processor.Basic{}, Delete: processor.Basic{},
	}))
	f.seedCatalog(t)
	f.cb = callback.NewCallbackSrv(f.store, f.reg, hooks)
	f.srv = NewOrderSrv(f.store, f.reg, f.cb, hooks, opts...)
	return f
}

func (f *fixture) seedCatalog(t *testing.T) {
	for id, blocked := range map[string]bool{"cust-1": false, "cust-blocked": true} {
		c := &model.Customer{Name: id, Blocked: blocked}
		c.ID = id
		require.NoError(t, f.store.Customers().Save(f.ctx, c))
	}
	offerings := []struct {
		id, typ, customer string
		state             model.OfferingState
	}{
		{"offering-x", processor.TestBackendType, "cust-1", model.OfferingActive},
		{"offering-basic", processor.BasicType, "cust-1", model.OfferingActive},
		{"offering-paused", processor.TestBackendType, "cust-1", model.OfferingPaused},
		{"offering-blocked", processor.TestBackendType, "cust-blocked", model.OfferingActive},
	}
	for _, o := range offerings {
		m := &model.Offering{Name: o.id, Type: o.typ, State: o.state, CustomerID: o.customer}
		m.ID = o.id
		require.NoError(t, f.store.Offerings().Save(f.ctx, m))
	}
	plans := []struct {
		id, offering string
		archived     bool
	}{
		{"p1", "offering-x", false},
		{"p2", "offering-x", false},
		{"p-archived", "offering-x", true},
		{"b1", "offering-basic", false},
		{"b2", "offering-basic", false},
	}
	for _, p := range plans {
		m := &model.Plan{OfferingID: p.offering, Name: p.id, Archived: p.archived}
		m.ID = p.id
		require.NoError(t, f.store.Plans().Save(f.ctx, m))
	}
}

func (f *fixture) seedResource(t *testing.T, offeringID, offeringType, planID string, state model.ResourceState) *model.Resource {
	r := &model.Resource{
		OfferingID:   offeringID,
		OfferingType: offeringType,
		PlanID:       planID,
		ProjectID:    "project-1",
		State:        state,
		BackendID:    "seeded",
	}
	require.NoError(t, f.store.Resources().Create(f.ctx, r))
	return r
}

func (f *fixture) resource(t *testing.T, id string) *model.Resource {
	r, err := f.store.Resources().Get(f.ctx, id)
	require.NoError(t, err)
	return r
}

func createRequest(attrs model.Attributes) *SubmitRequest {
	return &SubmitRequest{
		Type:       model.OrderCreate,
		OfferingID: "offering-x",
		PlanID:     "p1",
		ProjectID:  "project-1",
		Limits:     model.Limits{"cores": 2},
		Attributes: attrs,
	}
}

func TestCreateSucceeds(t *testing.T) {
	f := newFixture(t, hook.Nop{})
	before := testutil.ToFloat64(metrics.OrdersSubmitted.WithLabelValues("CREATE"))

	o, err := f.srv.Submit(f.ctx, createRequest(model.Attributes{
		"name":                  "vm",
		processor.AttrBackendID: "abc123",
	}), approver)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDone, o.State)
	assert.Equal(t, "bob", o.ProviderReviewedBy)
	require.NotEmpty(t, o.ResourceID)

	r := f.resource(t, o.ResourceID)
	assert.Equal(t, model.ResourceOK, r.State)
	assert.Equal(t, "abc123", r.BackendID)
	assert.Equal(t, "vm", r.Name)
	assert.Equal(t, "p1", r.PlanID)
	assert.Equal(t, model.Limits{"cores": 2}, r.Limits)
	assert.Equal(t, "online", r.Attributes["runtime_state"])
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.OrdersSubmitted.WithLabelValues("CREATE")))
}

func TestCreateBackendFailure(t *testing.T) {
	f := newFixture(t, hook.Nop{})

	o, err := f.srv.Submit(f.ctx, createRequest(model.Attributes{processor.AttrFail: "quota exceeded"}), approver)
	require.NoError(t, err)
	assert.Equal(t, model.OrderErred, o.State)
	assert.Equal(t, "quota exceeded", o.ErrorMessage)

	r := f.resource(t, o.ResourceID)
	assert.Equal(t, model.ResourceErred, r.State)
	assert.Equal(t, "quota exceeded", r.ErrorMessage)
	assert.Empty(t, r.BackendID)
}

func TestApprovalFlow(t *testing.T) {
	f := newFixture(t, hook.Nop{})

	o, err := f.srv.Submit(f.ctx, createRequest(nil), consumer)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPendingConsumer, o.State)
	assert.Empty(t, o.ResourceID)

	_, err = f.srv.ApproveByProvider(f.ctx, o.ID, &Actor{ID: "dave", ProviderApprover: true})
	assert.True(t, errors.Is(err, code.ErrIncorrectState))

	o, err = f.srv.ApproveByConsumer(f.ctx, o.ID, &Actor{ID: "carol", ConsumerApprover: true})
	require.NoError(t, err)
	assert.Equal(t, model.OrderPendingProvider, o.State)
	assert.Equal(t, "carol", o.ConsumerReviewedBy)

	_, err = f.srv.ApproveByConsumer(f.ctx, o.ID, &Actor{ID: "carol", ConsumerApprover: true})
	assert.True(t, errors.Is(err, code.ErrIncorrectState))

	o, err = f.srv.ApproveByProvider(f.ctx, o.ID, &Actor{ID: "dave", ProviderApprover: true})
	require.NoError(t, err)
	assert.Equal(t, model.OrderDone, o.State)
	assert.Equal(t, "dave", o.ProviderReviewedBy)
	assert.Equal(t, model.ResourceOK, f.resource(t, o.ResourceID).State)
}

func TestAutoApprove(t *testing.T) {
	f := newFixture(t, hook.Nop{}, WithAutoApprove(true))

	o, err := f.srv.Submit(f.ctx, createRequest(nil), consumer)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDone, o.State)
	assert.Empty(t, o.ConsumerReviewedBy)
}

// busyOrders fails every order row lock taken inside a transaction.
type busyOrders struct {
	store.Factory
}

func (b busyOrders) Transaction(ctx context.Context, fc func(tx store.Factory) error) error {
	return b.Factory.Transaction(ctx, func(tx store.Factory) error {
		return fc(busyOrders{Factory: tx})
	})
}

func (b busyOrders) Orders() store.OrderStore {
	return busyOrderStore{OrderStore: b.Factory.Orders()}
}

type busyOrderStore struct {
	store.OrderStore
}

func (busyOrderStore) GetForUpdate(context.Context, string) (*model.Order, error) {
	return nil, errors.New("lock wait timeout exceeded")
}

func TestAutoApproveClaimFailureReturnsStoredOrder(t *testing.T) {
	f := newFixture(t, hook.Nop{})
	srv := NewOrderSrv(busyOrders{Factory: f.store}, f.reg, f.cb, hook.Nop{}, WithAutoApprove(true))

	o, err := srv.Submit(f.ctx, createRequest(nil), consumer)
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, model.OrderPendingProvider, o.State)

	canceled, err := f.srv.Cancel(f.ctx, o.ID, consumer)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCanceled, canceled.State)
}

func TestRejectAndCancel(t *testing.T) {
	f := newFixture(t, hook.Nop{})

	o, err := f.srv.Submit(f.ctx, createRequest(nil), consumer)
	require.NoError(t, err)
	o, err = f.srv.Reject(f.ctx, o.ID, &Actor{ID: "carol"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderRejected, o.State)
	assert.Equal(t, "carol", o.ConsumerReviewedBy)
	assert.NotNil(t, o.CompletedAt)

	_, err = f.srv.Cancel(f.ctx, o.ID, consumer)
	assert.True(t, errors.Is(err, code.ErrIncorrectState))

	o, err = f.srv.Submit(f.ctx, createRequest(nil), consumer)
	require.NoError(t, err)
	o, err = f.srv.Cancel(f.ctx, o.ID, consumer)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCanceled, o.State)

	// executing orders cannot be withdrawn
	basic := &SubmitRequest{Type: model.OrderCreate, OfferingID: "offering-basic", PlanID: "b1", ProjectID: "project-1"}
	o, err = f.srv.Submit(f.ctx, basic, approver)
	require.NoError(t, err)
	assert.Equal(t, model.OrderExecuting, o.State)
	_, err = f.srv.Cancel(f.ctx, o.ID, consumer)
	assert.True(t, errors.Is(err, code.ErrIncorrectState))
}

func TestUpdateConflictKeepsPlan(t *testing.T) {
	f := newFixture(t, hook.Nop{}, WithAutoApprove(true))
	r := f.seedResource(t, "offering-basic", processor.BasicType, "b1", model.ResourceOK)

	first, err := f.srv.Submit(f.ctx, &SubmitRequest{Type: model.OrderUpdate, ResourceID: r.ID, PlanID: "b2"}, consumer)
	require.NoError(t, err)
	assert.Equal(t, model.OrderExecuting, first.State)
	assert.Equal(t, "b1", first.OldPlanID)
	assert.Equal(t, model.ResourceUpdating, f.resource(t, r.ID).State)

	_, err = f.srv.Submit(f.ctx, &SubmitRequest{Type: model.OrderUpdate, ResourceID: r.ID, PlanID: "b2"}, consumer)
	assert.True(t, errors.Is(err, code.ErrActiveOrderExists))
	assert.Equal(t, "b1", f.resource(t, r.ID).PlanID)

	_, err = f.cb.ResourceUpdateSucceeded(f.ctx, r.ID, callback.Validate())
	require.NoError(t, err)
	got := f.resource(t, r.ID)
	assert.Equal(t, model.ResourceOK, got.State)
	assert.Equal(t, "b2", got.PlanID)
	done, err := f.srv.Get(f.ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDone, done.State)
}

func TestUpdateLimits(t *testing.T) {
	f := newFixture(t, hook.Nop{})
	o, err := f.srv.Submit(f.ctx, createRequest(nil), approver)
	require.NoError(t, err)

	o, err = f.srv.Submit(f.ctx, &SubmitRequest{
		Type:       model.OrderUpdate,
		ResourceID: o.ResourceID,
		Limits:     model.Limits{"cores": 8},
	}, approver)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDone, o.State)
	assert.Equal(t, model.Limits{"cores": 2}, o.OldLimits)
	r := f.resource(t, o.ResourceID)
	assert.Equal(t, model.Limits{"cores": 8}, r.Limits)
	assert.Equal(t, "p1", r.PlanID)
}

func TestTerminate(t *testing.T) {
	f := newFixture(t, hook.Nop{})
	created, err := f.srv.Submit(f.ctx, createRequest(nil), approver)
	require.NoError(t, err)
	require.Equal(t, 1, f.backend.Count())

	req := &SubmitRequest{Type: model.OrderTerminate, ResourceID: created.ResourceID}
	o, err := f.srv.Submit(f.ctx, req, approver)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDone, o.State)
	assert.Equal(t, model.ResourceTerminated, f.resource(t, created.ResourceID).State)
	assert.Equal(t, 0, f.backend.Count())

	_, err = f.srv.Submit(f.ctx, req, approver)
	assert.True(t, errors.Is(err, code.ErrIncorrectState))
}

func TestTerminateErredResource(t *testing.T) {
	f := newFixture(t, hook.Nop{})
	r := f.seedResource(t, "offering-x", processor.TestBackendType, "p1", model.ResourceErred)

	o, err := f.srv.Submit(f.ctx, &SubmitRequest{Type: model.OrderTerminate, ResourceID: r.ID}, approver)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDone, o.State)
	assert.Equal(t, model.ResourceTerminated, f.resource(t, r.ID).State)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t, hook.Nop{})
	creating := f.seedResource(t, "offering-x", processor.TestBackendType, "p1", model.ResourceCreating)
	basic := f.seedResource(t, "offering-basic", processor.BasicType, "b1", model.ResourceOK)

	withOffering := func(offeringID, planID string) *SubmitRequest {
		req := createRequest(nil)
		req.OfferingID, req.PlanID = offeringID, planID
		return req
	}
	cases := []struct {
		name string
		req  *SubmitRequest
		want error
	}{
		{"unknown type", &SubmitRequest{Type: "RESIZE"}, code.ErrValidation},
		{"missing project", &SubmitRequest{Type: model.OrderCreate, OfferingID: "offering-x"}, code.ErrValidation},
		{"unknown offering", withOffering("nope", ""), code.ErrOfferingNotFound},
		{"paused offering", withOffering("offering-paused", ""), code.ErrIncorrectState},
		{"blocked customer", withOffering("offering-blocked", ""), code.ErrCustomerBlocked},
		{"plan of other offering", withOffering("offering-x", "b1"), code.ErrValidation},
		{"archived plan", withOffering("offering-x", "p-archived"), code.ErrValidation},
		{"unknown plan", withOffering("offering-x", "p9"), code.ErrPlanNotFound},
		{"missing limit", &SubmitRequest{Type: model.OrderCreate, OfferingID: "offering-x", ProjectID: "p"}, code.ErrValidation},
		{"update of creating resource", &SubmitRequest{Type: model.OrderUpdate, ResourceID: creating.ID, PlanID: "p2"}, code.ErrIncorrectState},
		{"update changes nothing", &SubmitRequest{Type: model.OrderUpdate, ResourceID: basic.ID, PlanID: "b1"}, code.ErrValidation},
		{"limits not updatable", &SubmitRequest{Type: model.OrderUpdate, ResourceID: basic.ID, Limits: model.Limits{"cores": 1}}, code.ErrValidation},
		{"missing resource", &SubmitRequest{Type: model.OrderTerminate}, code.ErrValidation},
		{"unknown resource", &SubmitRequest{Type: model.OrderTerminate, ResourceID: "nope"}, code.ErrResourceNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.srv.Submit(f.ctx, tc.req, approver)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
	orders, err := f.srv.List(f.ctx, &model.OrderQuery{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestConcurrentSubmissionsLeaveOneActiveOrder(t *testing.T) {
	f := newFixture(t, hook.Nop{})
	r := f.seedResource(t, "offering-basic", processor.BasicType, "b1", model.ResourceOK)

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		accepted  int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.srv.Submit(f.ctx, &SubmitRequest{Type: model.OrderTerminate, ResourceID: r.ID}, consumer)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
			} else if errors.Is(err, code.ErrActiveOrderExists) {
				conflicts++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, accepted)
	assert.Equal(t, n-1, conflicts)

	active, err := f.srv.List(f.ctx, &model.OrderQuery{ResourceID: r.ID, States: model.ActiveOrderStates})
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestProcessCommitsClaimBeforeBackendCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	hooks := hook.NewMockHooks(ctrl)
	f := newFixture(t, hooks)

	creator := processor.NewMockCreator(ctrl)
	creator.EXPECT().Name().Return("mock").AnyTimes()
	require.NoError(t, f.reg.Register("Mock", registry.Plugin{Create: creator}))
	offering := &model.Offering{Name: "mock", Type: "Mock", State: model.OfferingActive, CustomerID: "cust-1"}
	offering.ID = "offering-mock"
	require.NoError(t, f.store.Offerings().Save(f.ctx, offering))

	hooks.EXPECT().OnResourceStateChanged(gomock.Any(), gomock.Any(), model.ResourceState(""), model.ResourceCreating)
	hooks.EXPECT().OnOrderExecuted(gomock.Any(), gomock.Any())
	creator.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), "bob").DoAndReturn(
		func(ctx context.Context, r *model.Resource, o *model.Order, _ string) (*processor.Result, error) {
			stored, err := f.store.Resources().Get(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, model.ResourceCreating, stored.State)
			assert.Equal(t, model.OrderExecuting, o.State)
			return &processor.Result{Pending: true, BackendID: "job-1"}, nil
		})

	o, err := f.srv.Submit(f.ctx, &SubmitRequest{Type: model.OrderCreate, OfferingID: "offering-mock", ProjectID: "project-1"}, approver)
	require.NoError(t, err)
	assert.Equal(t, model.OrderExecuting, o.State)
	r := f.resource(t, o.ResourceID)
	assert.Equal(t, model.ResourceCreating, r.State)
	assert.Equal(t, "job-1", r.BackendID)
}
