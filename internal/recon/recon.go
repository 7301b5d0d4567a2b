package recon

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/supplyhub/cart-service/internal/catalog"
	"github.com/supplyhub/cart-service/internal/domain"
)

// Outcome partitions the validated items by catalog membership. ValidIDs is
// the full catalog-valid id set from the response, so callers can re-filter
// whatever items exist by the time the response lands. On failure Removed is
// empty, Valid carries the input unchanged and ValidIDs is nil.
type Outcome struct {
	Removed  []domain.CartItem
	Valid    []domain.CartItem
	ValidIDs map[string]struct{}
}

// Service cross-checks cart items against the authoritative catalog.
// Validation is fail-open: a catalog failure never removes items and never
// surfaces an error to the caller.
type Service struct {
	catalog catalog.Lister
	sfg     singleflight.Group // Coalesces concurrent catalog reads
	logger  zerolog.Logger
}

func NewService(c catalog.Lister, logger zerolog.Logger) *Service {
	return &Service{
		catalog: c,
		logger:  logger.With().Str("component", "recon").Logger(),
	}
}

// Validate partitions items into catalog-valid and removed. An empty cart
// short-circuits without a network call.
func (s *Service) Validate(ctx context.Context, items []domain.CartItem) Outcome {
	if len(items) == 0 {
		return Outcome{}
	}

	v, err, _ := s.sfg.Do("catalog-product-ids", func() (interface{}, error) {
		ids, err := s.catalog.ListProductIDs(ctx)
		if err != nil {
			return nil, err
		}
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		return set, nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("catalog validation failed, keeping cart items")
		return Outcome{Valid: items}
	}

	validIDs := v.(map[string]struct{})
	out := Outcome{ValidIDs: validIDs}
	for _, it := range items {
		if _, ok := validIDs[it.ID]; ok {
			out.Valid = append(out.Valid, it)
		} else {
			out.Removed = append(out.Removed, it)
		}
	}
	return out
}
