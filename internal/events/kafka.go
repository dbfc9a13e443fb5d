package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/shopping-planner/backend/internal/config"
)

type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher создает асинхронного продюсера событий генерации.
func NewKafkaPublisher(cfg config.EventsConfig, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		WriteTimeout: cfg.WriteTimeout,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("publish events failed", "topic", cfg.Topic, "count", len(messages), "error", err)
			}
		},
	}

	return &KafkaPublisher{writer: writer}
}

// PublishListGenerated ставит событие в очередь на отправку, ключ сообщения это пользователь.
func (p *KafkaPublisher) PublishListGenerated(ctx context.Context, event ListGenerated) error {
	msg, err := listGeneratedMessage(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, msg)
}

// Close дожидается отправки буфера и закрывает продюсера.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func listGeneratedMessage(event ListGenerated) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(event.UserID.String()),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}, nil
}
