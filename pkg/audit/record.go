package audit

import (
	"context"
	"time"
)

// Actions recorded by the API.
const (
	ActionAnonymize   = "anonymize"
	ActionDeanonymize = "deanonymize"
	ActionConfigTest  = "config_test"
	ActionInvoke      = "invoke"
)

// Statuses recorded by the API.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusDenied  = "denied"
)

// Record is one audited operation.
type Record struct {
	ID          string        `json:"id"`
	RequestID   string        `json:"request_id"`
	Action      string        `json:"action"`
	Shape       string        `json:"shape,omitempty"`
	Status      string        `json:"status"`
	EntityCount int           `json:"entity_count"`
	FieldCount  int           `json:"field_count"`
	SourceIP    string        `json:"source_ip,omitempty"`
	ClientID    string        `json:"client_id,omitempty"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Query filters records. Zero values match everything.
type Query struct {
	Action    string
	Status    string
	ClientID  string
	StartTime time.Time
	EndTime   time.Time

	// Limit caps the number of records returned. 0 means no limit.
	Limit  int
	Offset int
}

// Store persists audit records.
//
// Query returns records newest first.
type Store interface {
	Store(ctx context.Context, record *Record) error
	Query(ctx context.Context, q *Query) ([]*Record, error)
	Count(ctx context.Context, q *Query) (int64, error)

	// DeleteBefore removes records created before t and returns how many
	// were removed.
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)

	// Ping reports whether the store can serve requests.
	Ping(ctx context.Context) error
	Close() error
}

func (q *Query) matches(r *Record) bool {
	if q == nil {
		return true
	}
	if q.Action != "" && r.Action != q.Action {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.ClientID != "" && r.ClientID != q.ClientID {
		return false
	}
	if !q.StartTime.IsZero() && r.CreatedAt.Before(q.StartTime) {
		return false
	}
	if !q.EndTime.IsZero() && r.CreatedAt.After(q.EndTime) {
		return false
	}
	return true
}
