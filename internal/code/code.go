package code

import "marketplace/pkg/code"

var (
	// 1100001~1100099 order lifecycle

	ErrValidation        = code.Froze("4001100001", "order validation failed")
	ErrActiveOrderExists = code.Froze("4001100002", "resource already has an active order")
	ErrIncorrectState    = code.Froze("4091100003", "operation is not allowed in the current state")
	ErrProcessorNotFound = code.Froze("5001100004", "processor is not registered for offering type")
	ErrConfiguration     = code.Froze("5001100005", "invalid processor configuration")
	ErrBackend           = code.Froze("5021100006", "backend request failed")
	ErrResourceNotFound  = code.Froze("4041100007", "resource not found")
	ErrOrderNotFound     = code.Froze("4041100008", "order not found")
	ErrOfferingNotFound  = code.Froze("4041100009", "offering not found")
	ErrPlanNotFound      = code.Froze("4041100010", "plan not found")
	ErrCustomerBlocked   = code.Froze("4031100011", "customer is blocked")
	ErrNoUpdate          = code.Froze("4091100012", "row was modified concurrently")
	ErrInvalidSecret     = code.Froze("4011100013", "invalid offering secret code")
	ErrCustomerNotFound  = code.Froze("4041100014", "customer not found")
)

// Loading verifies the business codes against the shared ones.
func Loading() error {
	return code.AddCode(map[code.ErrorCode]struct{}{
		ErrValidation:        {},
		ErrActiveOrderExists: {},
		ErrIncorrectState:    {},
		ErrProcessorNotFound: {},
		ErrConfiguration:     {},
		ErrBackend:           {},
		ErrResourceNotFound:  {},
		ErrOrderNotFound:     {},
		ErrOfferingNotFound:  {},
		ErrPlanNotFound:      {},
		ErrCustomerBlocked:   {},
		ErrNoUpdate:          {},
		ErrInvalidSecret:     {},
		ErrCustomerNotFound:  {},
	})
}
