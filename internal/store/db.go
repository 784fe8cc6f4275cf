// Package store persists completed practice runs and the local set-data
// cache in SQLite.
package store

import (
	"time"
)

// DB is the persistence interface the API and the data loader depend on.
type DB interface {
	Close() error
	Migrate() error

	SaveRun(run *Run) error
	GetRun(id string) (*Run, error)
	ListRuns(query RunsQuery) (*RunsList, error)

	// Set-data cache (gamedata.Cache).
	GetSetData(namespace string) ([]byte, time.Time, error)
	PutSetData(namespace string, data []byte) error
}

// Run is one completed rolldown, practiced by hand or simulated by script.
type Run struct {
	ID         string    `json:"id" db:"id"`
	SessionID  string    `json:"session_id" db:"session_id"`
	Namespace  string    `json:"namespace" db:"namespace"`
	Strategy   string    `json:"strategy" db:"strategy"` // "manual" or the script name
	Seed       int64     `json:"seed" db:"seed"`
	ShopsSeen  int       `json:"shops_seen" db:"shops_seen"`
	Rerolls    int       `json:"rerolls" db:"rerolls"`
	Purchases  int       `json:"purchases" db:"purchases"`
	GoldSpent  string    `json:"gold_spent" db:"gold_spent"`
	HitsJSON   string    `json:"hits_json" db:"hits_json"` // target identity -> copies hit
	StopReason string    `json:"stop_reason" db:"stop_reason"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// RunsQuery filters and paginates run listings.
type RunsQuery struct {
	Namespace string `json:"namespace,omitempty"`
	Strategy  string `json:"strategy,omitempty"`
	Page      int    `json:"page"`
	PerPage   int    `json:"perPage"`
}

// RunsList is a paginated runs response.
type RunsList struct {
	Runs       []Run `json:"runs"`
	TotalCount int   `json:"totalCount"`
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	TotalPages int   `json:"totalPages"`
}
