package limits

import (
	"errors"
	"fmt"
)

// ErrUnknownResource is returned when the tenant record carries no cap for
// the requested resource kind, which indicates a misconfigured plan.
var ErrUnknownResource = errors.New("limits: unknown resource kind")

// LimitExceededError is returned when a tenant has used up its cap for a
// resource. It carries the current usage so callers can surface it.
type LimitExceededError struct {
	Resource Resource
	Limit    int64
	Current  int64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("limits: %s limit reached (%d of %d used)", e.Resource, e.Current, e.Limit)
}

// IsLimitExceeded reports whether err is a LimitExceededError.
func IsLimitExceeded(err error) bool {
	var e *LimitExceededError
	return errors.As(err, &e)
}
