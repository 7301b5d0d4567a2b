package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/supplyhub/cart-service/internal/cart"
	"github.com/supplyhub/cart-service/internal/domain"
	"github.com/supplyhub/cart-service/internal/persist"
	"github.com/supplyhub/cart-service/internal/recon"
)

type stubPersist struct{}

func (stubPersist) Load(context.Context, string) (*domain.CartState, error) {
	return nil, persist.ErrNotFound
}
func (stubPersist) Save(context.Context, string, *domain.CartState) error { return nil }
func (stubPersist) Delete(context.Context, string) error                  { return nil }

type stubLister struct {
	ids []string
}

func (l stubLister) ListProductIDs(context.Context) ([]string, error) {
	return l.ids, nil
}

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	topicConfigs := []kafkaGo.TopicConfig{{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}}

	err = controllerConn.CreateTopics(topicConfigs...)
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestPoller_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	brokers, cleanupKafka := setupKafka(t)
	defer cleanupKafka()
	topic := "catalog-updates"
	createTopic(t, brokers, topic)

	// Catalog knows only p1, so p2 must be pruned once the event lands.
	svc := recon.NewService(stubLister{ids: []string{"p1"}}, zerolog.Nop())
	manager := cart.NewManager(stubPersist{}, svc, zerolog.Nop())

	st := manager.Get(ctx, "owner-1")
	st.AddItem(domain.CartItem{ID: "p1", Name: "Copy paper", Price: decimal.NewFromInt(500)}, 1)
	st.AddItem(domain.CartItem{ID: "p2", Name: "Discontinued pen", Price: decimal.NewFromInt(120)}, 1)
	require.Len(t, st.Items(), 2)

	poller := NewPoller(manager, zerolog.Nop(), topic, "cart-service-test", brokers)
	defer poller.Close()

	w := &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(brokers),
		Topic:                  topic,
		Balancer:               &kafkaGo.LeastBytes{},
		AllowAutoTopicCreation: true,
	}

	payloadJSON, err := json.Marshal(map[string]interface{}{
		"event":       "catalog_updated",
		"occurred_at": time.Now().UTC(),
	})
	require.NoError(t, err)

	err = w.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte("catalog"),
		Value: payloadJSON,
	})
	require.NoError(t, err)
	w.Close()

	go poller.Run(ctx)

	require.Eventually(t, func() bool {
		items := st.Items()
		return len(items) == 1 && items[0].ID == "p1"
	}, 30*time.Second, 500*time.Millisecond)
}
