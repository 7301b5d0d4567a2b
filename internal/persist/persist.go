package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/supplyhub/cart-service/internal/domain"
)

// SchemaVersion is bumped whenever the persisted cart shape changes. Load
// rejects snapshots written under a different version instead of decoding
// them into the wrong shape.
const SchemaVersion = 1

var (
	ErrNotFound      = errors.New("cart snapshot not found")
	ErrSchemaVersion = errors.New("unsupported cart snapshot schema version")
)

// Store is the persistence contract for cart snapshots, keyed by owner.
// Consumers define this interface, not the backends.
type Store interface {
	Load(ctx context.Context, ownerID string) (*domain.CartState, error)
	Save(ctx context.Context, ownerID string, state *domain.CartState) error
	Delete(ctx context.Context, ownerID string) error
}

type envelope struct {
	SchemaVersion int              `json:"schema_version"`
	State         domain.CartState `json:"state"`
}

func encode(state *domain.CartState) ([]byte, error) {
	data, err := json.Marshal(envelope{SchemaVersion: SchemaVersion, State: *state})
	if err != nil {
		return nil, fmt.Errorf("marshal cart snapshot failed: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*domain.CartState, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot failed: %w", err)
	}
	if env.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaVersion, env.SchemaVersion, SchemaVersion)
	}
	return &env.State, nil
}
