package api

import (
	"github.com/MJE43/rolldown-trainer-go/internal/session"
)

// EngineError represents a structured error response with context.
type EngineError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// Error implements the error interface.
func (e EngineError) Error() string {
	return e.Message
}

// Error types with proper categorization.
const (
	// Input validation errors
	ErrTypeInvalidParams = "invalid_params"
	ErrTypeValidation    = "validation_error"

	// Domain errors
	ErrTypeSessionNotFound = "session_not_found"
	ErrTypeSetNotFound     = "set_not_found"
	ErrTypeRunNotFound     = "run_not_found"
	ErrTypeCommandRejected = "command_rejected"
	ErrTypeScriptError     = "script_error"

	// System errors
	ErrTypeTimeout  = "timeout"
	ErrTypeInternal = "internal_error"
)

// ErrorCategory represents error categories for monitoring.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryDomain     ErrorCategory = "domain"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type.
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidParams, ErrTypeValidation:
		return CategoryValidation
	case ErrTypeSessionNotFound, ErrTypeSetNotFound, ErrTypeRunNotFound,
		ErrTypeCommandRejected, ErrTypeScriptError:
		return CategoryDomain
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains build version information.
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// CreateSessionRequest starts a practice session.
type CreateSessionRequest struct {
	Set     string   `json:"set,omitempty"` // namespace; empty selects the default set
	Level   int      `json:"level"`
	Gold    int      `json:"gold"`
	Targets []string `json:"targets,omitempty"`
}

// BuyRequest purchases a shop slot.
type BuyRequest struct {
	Slot       int  `json:"slot"`
	BenchIndex *int `json:"bench_index,omitempty"`
}

// SellRequest sells an owned unit.
type SellRequest struct {
	InstanceID string `json:"instance_id"`
}

// MoveRequest relocates an owned unit.
type MoveRequest struct {
	InstanceID string           `json:"instance_id"`
	To         session.Location `json:"to"`
}

// SellResponse reports the credited gold.
type SellResponse struct {
	Value int           `json:"value"`
	State session.State `json:"state"`
}

// SimulateRequest runs a scripted strategy against a fresh session.
type SimulateRequest struct {
	Script   string   `json:"script"`
	Strategy string   `json:"strategy,omitempty"` // label stored with the run
	Set      string   `json:"set,omitempty"`
	Level    int      `json:"level"`
	Gold     int      `json:"gold"`
	Targets  []string `json:"targets,omitempty"`
	Seed     *uint32  `json:"seed,omitempty"` // reproducible draws when set
}

// SetInfo describes one known data set.
type SetInfo struct {
	Namespace string `json:"namespace"`
	Champions int    `json:"champions"`
	MaxLevel  int    `json:"max_level"`
	Active    bool   `json:"active"`
}
