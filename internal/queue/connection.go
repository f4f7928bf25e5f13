package queue

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/codelab-edu/grader/internal/logger"
	"github.com/codelab-edu/grader/pkg/constants"
)

// Connect dials RabbitMQ with a bounded retry loop and returns an open
// connection plus a wrapped channel.
func Connect(url string) (*amqp.Connection, Channel, error) {
	log := logger.NewNamedLogger("queue")

	var conn *amqp.Connection
	var err error
	for attempt := 1; attempt <= constants.RabbitMQReconnectTries; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		log.Warnf("Failed to connect to RabbitMQ (attempt %d/%d): %s",
			attempt, constants.RabbitMQReconnectTries, err)
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	return conn, &amqpChannel{ch: ch}, nil
}

// amqpChannel adapts a live *amqp.Channel to the Channel interface.
type amqpChannel struct {
	ch *amqp.Channel
}

func (a *amqpChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return a.ch.Publish(exchange, key, mandatory, immediate, msg)
}

func (a *amqpChannel) QueueDeclare(
	name string,
	durable, autoDelete, exclusive, noWait bool,
	args amqp.Table,
) (amqp.Queue, error) {
	return a.ch.QueueDeclare(name, durable, autoDelete, exclusive, noWait, args)
}

func (a *amqpChannel) Consume(
	queue, consumer string,
	autoAck, exclusive, noLocal, noWait bool,
	args amqp.Table,
) (<-chan amqp.Delivery, error) {
	return a.ch.Consume(queue, consumer, autoAck, exclusive, noLocal, noWait, args)
}
