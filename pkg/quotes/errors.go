package quotes

import (
	"errors"
	"fmt"
	"time"
)

// Execution stage names used in timeout and store errors.
const (
	StageAcquire    = "connection acquisition"
	StageDataQuery  = "data query"
	StageCountQuery = "count query"
)

// TimeoutError reports a single execution stage exceeding its deadline.
type TimeoutError struct {
	Stage string
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Stage, e.Limit)
}

// StoreError wraps any non-timeout failure from the underlying store. The
// full detail is for logs; callers surface PublicMessage instead.
type StoreError struct {
	Stage string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// PublicMessage maps an execution error to the generic message shown to
// callers. Timeouts get retry phrasing; everything else collapses into a
// catch-all so no internal detail leaks.
func PublicMessage(err error) string {
	var te *TimeoutError
	if errors.As(err, &te) {
		return "Database query timed out. Please try again or with a more specific search."
	}
	return "Database error occurred. Please try again later."
}
