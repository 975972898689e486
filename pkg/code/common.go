package code

import "fmt"

const codeLength = 7

var (
	// 0000000~0000099 are shared by every service.

	ErrInternalServerError = Froze("5000000000", "internal server error")
	ErrInvalidParam        = Froze("4000000001", "invalid request parameter")
	ErrNotFound            = Froze("4040000002", "not found")
	ErrNotAllowMethod      = Froze("4050000003", "method not allowed")
	ErrParseContent        = Froze("5000000004", "failed to parse content")
	ErrCodeUnknown         = Froze("5000000005", "unknown error")
	ErrTooManyRequests     = Froze("4290000006", "too many requests")
)

// AddCode verifies that the business codes in m are well formed and do not collide with each other or with the shared codes.
func AddCode(m map[ErrorCode]struct{}) error {
	seen := make(map[string]string)
	for _, group := range []map[ErrorCode]struct{}{
		{
			ErrInternalServerError: {},
			ErrInvalidParam:        {},
			ErrNotFound:            {},
			ErrNotAllowMethod:      {},
			ErrParseContent:        {},
			ErrCodeUnknown:         {},
			ErrTooManyRequests:     {},
		},
		m,
	} {
		for errorCode := range group {
			if err := check(errorCode); err != nil {
				return err
			}
			c := errorCode.Code()
			if value, ok := seen[c]; ok {
				return fmt.Errorf("error code %s(%s) already exists", c, value)
			}
			seen[c] = errorCode.Message()
		}
	}
	return nil
}

func check(err ErrorCode) error {
	c := err.Code()
	statusCode := err.StatusCode()
	if statusCode < 100 || statusCode >= 600 {
		return fmt.Errorf("error code %s has invalid status code %d", c, statusCode)
	}
	if l := len(c); l != codeLength {
		return fmt.Errorf("error code %s has %d digits, want %d", c, l, codeLength)
	}
	return nil
}
