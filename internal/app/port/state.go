package port

import (
	"context"

	"xrpl_control_room/internal/domain/entity"
)

// StateStore persists the dashboard state between restarts. Load never
// fails on a stale or unknown schema; such sections come back as defaults.
type StateStore interface {
	Load(ctx context.Context) (entity.PersistedState, error)
	Save(ctx context.Context, state entity.PersistedState) error
	Close() error
}
