package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaNotifier публикует события бронирований в Kafka-топик.
// Сообщения хэшируются по типу события, чтобы сохранить порядок
// внутри одного типа.
type KafkaNotifier struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaNotifier(brokers []string, topic string, logger *zap.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			logger.Warn("kafka writer error", zap.String("message", msg), zap.Any("args", args))
		}),
	}

	return &KafkaNotifier{
		writer: writer,
		logger: logger,
	}
}

type envelope struct {
	Event      EventType `json:"event"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notify публикует событие. Ошибки доставки только логируются:
// уведомления не должны ломать основной поток бронирования.
func (n *KafkaNotifier) Notify(ctx context.Context, event EventType, payload any) {
	value, err := json.Marshal(envelope{
		Event:      event,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		n.logger.Warn("Failed to encode notification",
			zap.String("event", string(event)),
			zap.Error(err))
		return
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event),
		Value: value,
	})
	if err != nil {
		n.logger.Warn("Failed to publish notification",
			zap.String("event", string(event)),
			zap.Error(err))
	}
}

// Close закрывает продюсер.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
