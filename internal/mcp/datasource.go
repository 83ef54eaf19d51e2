package mcp

import (
	"context"

	"github.com/claude/liftlog/internal/workout"
)

// DataSource abstracts the data layer for MCP tools. Both *workout.Service
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	GetActive(ctx context.Context, userID string) (*workout.Session, error)
	ListHistory(ctx context.Context, userID string) ([]workout.Session, error)
	ListRoutines(ctx context.Context, userID string) ([]workout.Session, error)
}

// Compile-time check: *workout.Service satisfies DataSource.
var _ DataSource = (*workout.Service)(nil)
