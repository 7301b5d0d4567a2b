package poller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/supplyhub/cart-service/internal/cart"
)

// Poller consumes catalog-update events and re-validates every live cart
// against the catalog, so discontinued products are pruned without waiting
// for the owner to come back.
type Poller struct {
	manager *cart.Manager
	reader  *kafka.Reader
	logger  zerolog.Logger
}

func NewPoller(manager *cart.Manager, logger zerolog.Logger, topic, groupID string, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{
		manager: manager,
		reader:  reader,
		logger:  logger.With().Str("component", "poller").Logger(),
	}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.consumeAndReconcile(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.logger.Error().Err(err).Msg("error closing reader")
	}
}

type catalogEvent struct {
	Event string `json:"event"`
}

func (p *Poller) consumeAndReconcile(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("error reading message")
		return
	}

	var payload catalogEvent
	if errUnmarshal := json.Unmarshal(m.Value, &payload); errUnmarshal != nil {
		p.logger.Warn().Err(errUnmarshal).Msg("error parsing message, skipping")
		return
	}

	stores := p.manager.Active()
	p.logger.Info().
		Str("event", payload.Event).
		Str("offset", fmt.Sprint(m.Offset)).
		Int("carts", len(stores)).
		Msg("catalog update received, reconciling carts")

	for _, st := range stores {
		st.Reconcile(ctx)
	}
}
