package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/supplyhub/cart-service/internal/persist"
	"github.com/supplyhub/cart-service/internal/recon"
)

// Manager hands out one live Store per owner, rehydrating from persistence on
// first access. Concurrent first accesses for the same owner are coalesced so
// the snapshot is loaded once.
type Manager struct {
	mu      sync.Mutex
	stores  map[string]*Store
	persist persist.Store
	recon   *recon.Service
	sfg     singleflight.Group
	logger  zerolog.Logger
}

func NewManager(p persist.Store, r *recon.Service, logger zerolog.Logger) *Manager {
	return &Manager{
		stores:  make(map[string]*Store),
		persist: p,
		recon:   r,
		logger:  logger,
	}
}

// Get returns the owner's store, loading the persisted snapshot if one
// exists. A missing or unreadable snapshot yields an empty cart; a corrupt
// snapshot is logged, never fatal.
func (m *Manager) Get(ctx context.Context, ownerID string) *Store {
	m.mu.Lock()
	if st, ok := m.stores[ownerID]; ok {
		m.mu.Unlock()
		return st
	}
	m.mu.Unlock()

	v, _, _ := m.sfg.Do(ownerID, func() (interface{}, error) {
		st := NewStore(ownerID, m.persist, m.recon, m.logger)

		state, err := m.persist.Load(ctx, ownerID)
		switch {
		case err == nil:
			st.hydrate(state)
		case errors.Is(err, persist.ErrNotFound):
			// first visit, start empty
		default:
			m.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("cart snapshot load failed, starting empty")
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if existing, ok := m.stores[ownerID]; ok {
			return existing, nil
		}
		m.stores[ownerID] = st
		return st, nil
	})
	return v.(*Store)
}

// Active returns the stores currently held in memory.
func (m *Manager) Active() []*Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	stores := make([]*Store, 0, len(m.stores))
	for _, st := range m.stores {
		stores = append(stores, st)
	}
	return stores
}
