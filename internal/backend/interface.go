// Package backend builds the ledger repository selected by configuration,
// plus the optional AMQP client used to share change events.
package backend

import (
	"context"

	"budgetlite/internal/amqp"
	"budgetlite/internal/ledger"
)

// BackendType names a repository implementation.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

// IsValid reports whether t is a known backend.
func (t BackendType) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend:
		return true
	}
	return false
}

func (t BackendType) String() string { return string(t) }

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the repository, the optional AMQP client and the
// function releasing both.
type BackendResult struct {
	Repository ledger.Repository
	// Events is nil when AMQP is not configured or unreachable.
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite
	SQLiteDBPath string

	// Memory: optional category seed file
	CategoriesFile string

	// AMQP, optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}
