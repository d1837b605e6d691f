package model

import "time"

// IdempotencyStatus is the lifecycle state of an IdempotencyRecord (§4.6).
type IdempotencyStatus string

const (
	StatusProcessing IdempotencyStatus = "processing"
	StatusCompleted  IdempotencyStatus = "completed"
	StatusFailed     IdempotencyStatus = "failed"
	StatusExpired    IdempotencyStatus = "expired"
)

// IdempotencyResult is the cached outcome of a processed event.
type IdempotencyResult struct {
	Success  bool             `json:"success"`
	Response *ChannelResponse `json:"response,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// IdempotencyRecord is the lockable record tracking exactly-once
// processing of a single event ID.
type IdempotencyRecord struct {
	EventID string            `json:"event_id"`
	Status  IdempotencyStatus `json:"status"`
	Result  *IdempotencyResult `json:"result,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`

	LockHolder    string     `json:"lock_holder,omitempty"`
	LockExpiresAt *time.Time `json:"lock_expires_at,omitempty"`
}

// LockValid reports whether the record's lock is still held as of now.
func (r *IdempotencyRecord) LockValid(now time.Time) bool {
	return r.LockExpiresAt != nil && now.Before(*r.LockExpiresAt)
}

// IsExpired reports whether the record should be treated as absent.
func (r *IdempotencyRecord) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
