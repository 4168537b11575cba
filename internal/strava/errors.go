package strava

import (
	"errors"
	"fmt"
)

// ErrMissingFields means an activity payload lacked fields needed downstream.
var ErrMissingFields = errors.New("activity payload missing required fields")

// UpstreamError wraps a failed activity read or write.
type UpstreamError struct {
	Op         string
	UserID     int64
	ActivityID int64
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("strava: %s activity %d (athlete %d): %v", e.Op, e.ActivityID, e.UserID, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
