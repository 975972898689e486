package model

// ResourceState is the lifecycle state of a Resource.
type ResourceState string

const (
	ResourceCreating    ResourceState = "CREATING"
	ResourceOK          ResourceState = "OK"
	ResourceUpdating    ResourceState = "UPDATING"
	ResourceTerminating ResourceState = "TERMINATING"
	ResourceTerminated  ResourceState = "TERMINATED"
	ResourceErred       ResourceState = "ERRED"
)

// resourceTransitions lists the legal targets of every resource state.
var resourceTransitions = map[ResourceState][]ResourceState{
	ResourceCreating:    {ResourceOK, ResourceErred, ResourceTerminated},
	ResourceOK:          {ResourceUpdating, ResourceTerminating, ResourceErred},
	ResourceUpdating:    {ResourceOK, ResourceErred},
	ResourceTerminating: {ResourceTerminated, ResourceErred, ResourceOK},
	ResourceErred:       {ResourceOK, ResourceUpdating, ResourceTerminating, ResourceErred},
	ResourceTerminated:  nil,
}

func (s ResourceState) Valid() bool {
	_, ok := resourceTransitions[s]
	return ok
}

// Transitional states are the ones the stuck-resource sweep watches.
func (s ResourceState) Transitional() bool {
	return s == ResourceCreating || s == ResourceUpdating || s == ResourceTerminating
}

// CanTransitResource reports whether from -> to is a legal resource transition.
func CanTransitResource(from, to ResourceState) bool {
	for _, s := range resourceTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// OrderState is the approval and execution state of an Order.
type OrderState string

const (
	OrderPendingConsumer OrderState = "PENDING_CONSUMER"
	OrderPendingProvider OrderState = "PENDING_PROVIDER"
	OrderExecuting       OrderState = "EXECUTING"
	OrderDone            OrderState = "DONE"
	OrderErred           OrderState = "ERRED"
	OrderRejected        OrderState = "REJECTED"
	OrderCanceled        OrderState = "CANCELED"
)

var orderTransitions = map[OrderState][]OrderState{
	OrderPendingConsumer: {OrderPendingProvider, OrderExecuting, OrderRejected, OrderCanceled},
	OrderPendingProvider: {OrderExecuting, OrderRejected, OrderCanceled},
	OrderExecuting:       {OrderDone, OrderErred, OrderCanceled},
	OrderDone:            nil,
	OrderErred:           nil,
	OrderRejected:        nil,
	OrderCanceled:        nil,
}

// ActiveOrderStates are the non-terminal order states.
var ActiveOrderStates = []OrderState{OrderPendingConsumer, OrderPendingProvider, OrderExecuting}

func (s OrderState) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderState) Terminal() bool {
	return s.Valid() && len(orderTransitions[s]) == 0
}

func (s OrderState) Active() bool {
	return s.Valid() && !s.Terminal()
}

// Pending states can still be canceled by the requester.
func (s OrderState) Pending() bool {
	return s == OrderPendingConsumer || s == OrderPendingProvider
}

func CanTransitOrder(from, to OrderState) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type OrderType string

const (
	OrderCreate    OrderType = "CREATE"
	OrderUpdate    OrderType = "UPDATE"
	OrderTerminate OrderType = "TERMINATE"
)

func (t OrderType) Valid() bool {
	return t == OrderCreate || t == OrderUpdate || t == OrderTerminate
}

type OfferingState string

const (
	OfferingDraft    OfferingState = "DRAFT"
	OfferingActive   OfferingState = "ACTIVE"
	OfferingPaused   OfferingState = "PAUSED"
	OfferingArchived OfferingState = "ARCHIVED"
)

// Accepts reports whether an offering in this state takes new orders of type t.
// A paused offering still serves its existing resources.
func (s OfferingState) Accepts(t OrderType) bool {
	switch s {
	case OfferingActive:
		return true
	case OfferingPaused:
		return t != OrderCreate
	default:
		return false
	}
}

// BillingType of an offering component.
type BillingType string

const (
	BillingFixed BillingType = "FIXED"
	BillingUsage BillingType = "USAGE"
	BillingLimit BillingType = "LIMIT"
)
