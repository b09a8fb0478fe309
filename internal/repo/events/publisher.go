package events

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/nguyentranbao-ct/crm-assistant/internal/config"
	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
)

// ActivityPublisher fans recorded activities out to downstream consumers.
type ActivityPublisher interface {
	Publish(ctx context.Context, activity *models.Activity) error
}

// ActivityEvent is the wire form of a published activity.
type ActivityEvent struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id,omitempty"`
	EntityName string    `json:"entity_name"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewActivityEvent(a *models.Activity) ActivityEvent {
	ev := ActivityEvent{
		ID:         a.ID.Hex(),
		Action:     string(a.Action),
		EntityType: string(a.EntityType),
		EntityID:   a.EntityID,
		EntityName: a.EntityName,
		Timestamp:  a.Timestamp,
	}
	if a.User != nil {
		ev.UserID = a.User.Hex()
	}
	return ev
}

type kafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	metrics  *prometheus.HistogramVec
}

// NewProducerConfig is the sarama configuration used for activity events.
func NewProducerConfig(cfg config.KafkaConfig) *sarama.Config {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	sc.Producer.Retry.Max = 3
	sc.Producer.Timeout = 5 * time.Second
	return sc
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string) (ActivityPublisher, error) {
	metrics, err := util.GetHistogramVec("kafka_messages_published", "status", "topic")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	return &kafkaPublisher{
		producer: producer,
		topic:    topic,
		metrics:  metrics,
	}, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, activity *models.Activity) error {
	payload, err := json.Marshal(NewActivityEvent(activity))
	if err != nil {
		return fmt.Errorf("marshal activity event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Value:     sarama.ByteEncoder(payload),
		Timestamp: activity.Timestamp,
	}
	// keyed by actor so one user's events stay ordered
	if activity.User != nil {
		msg.Key = sarama.StringEncoder(activity.User.Hex())
	}

	start := time.Now()
	_, _, err = p.producer.SendMessage(msg)
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.metrics.WithLabelValues(status, p.topic).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("send activity event: %w", err)
	}
	return nil
}

type noopPublisher struct{}

func NewNoopPublisher() ActivityPublisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, *models.Activity) error {
	return nil
}
