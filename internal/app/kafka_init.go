package app

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
	"github.com/vladislavdragonenkov/greenlogist/internal/messaging/kafka"
)

const kafkaClientID = "greenlogist"

// initKafkaProducer создаёт producer, если заданы брокеры.
// Пустой список не ошибка: приложение работает без Kafka.
func initKafkaProducer(brokers []string, logger *log.Entry) (*kafka.Producer, error) {
	brokerList := make([]string, 0, len(brokers))
	for _, broker := range brokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokerList = append(brokerList, broker)
		}
	}
	if len(brokerList) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokerList, kafkaClientID)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer, nil
}

// outboxPublishers возвращает publisher для событий и для DLQ.
// Без producer события только пишутся в лог, DLQ не используется.
func outboxPublishers(producer *kafka.Producer, topic string, logger *log.Entry) (domain.OutboxPublisher, domain.OutboxPublisher) {
	if producer == nil {
		return kafka.NewLoggingPublisher(logger.WithField("publisher", "log")), nil
	}
	return kafka.NewOutboxPublisher(producer, topic), kafka.NewOutboxPublisher(producer, kafka.TopicDeadLetterQueue)
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
