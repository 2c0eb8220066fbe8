package models

import (
	decimal "github.com/shopspring/decimal"
)

// Quantity is a usage amount (core-hours, GB-hours) that serializes as a
// bare JSON number rather than decimal's default quoted string.
type Quantity struct {
	decimal.Decimal
}

// NewQuantity wraps d.
func NewQuantity(d decimal.Decimal) Quantity {
	return Quantity{Decimal: d}
}

// MarshalJSON encodes the quantity as a JSON number.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// Entry is one line of a report: a UsageRecord or a StorageRecord.
type Entry interface {
	Bounds() (string, string)
}

// UsageRecord is per-project, per-user compute and volume usage for one bucket.
type UsageRecord struct {
	ProjectID string   `json:"projectId"`
	User      int64    `json:"user"`
	Username  string   `json:"username"`
	CPU       Quantity `json:"cpu"`
	Volume    Quantity `json:"volume"`
	FromDate  string   `json:"fromDate"`
	ToDate    string   `json:"toDate"`
}

// Bounds returns the bucket the record was aggregated over.
func (r UsageRecord) Bounds() (string, string) { return r.FromDate, r.ToDate }

// StorageRecord is per-project image storage for one bucket. Storage is not
// attributed to a user, so User is always null on the wire.
type StorageRecord struct {
	ProjectID string   `json:"projectId"`
	User      *int64   `json:"user"`
	Image     Quantity `json:"image"`
	FromDate  string   `json:"fromDate"`
	ToDate    string   `json:"toDate"`
}

// Bounds returns the bucket the record was aggregated over.
func (r StorageRecord) Bounds() (string, string) { return r.FromDate, r.ToDate }

// Report is the /reports response body.
type Report struct {
	FromDate string  `json:"fromDate"`
	ToDate   string  `json:"toDate"`
	Bucket   string  `json:"bucket"`
	Entries  []Entry `json:"entries"`
}

// Project is a project the caller is authorized on, with the caller's roles.
type Project struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}
