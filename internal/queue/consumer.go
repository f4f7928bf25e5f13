package queue

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/codelab-edu/grader/internal/grader"
	"github.com/codelab-edu/grader/internal/logger"
	"github.com/codelab-edu/grader/internal/validator"
	"github.com/codelab-edu/grader/pkg/constants"
	"github.com/codelab-edu/grader/pkg/errors"
	"github.com/codelab-edu/grader/pkg/grading"
	"github.com/codelab-edu/grader/pkg/languages"
	"github.com/codelab-edu/grader/pkg/messages"
)

// Grader is the engine surface the queue path depends on; identical to the
// HTTP one so both transports share the pool and its backpressure.
type Grader interface {
	Grade(ctx context.Context, sub *grading.Submission) (*grading.Summary, error)
	Status() grader.PoolStatus
}

// Channel is the subset of *amqp.Channel the consumer and responder use. The
// indirection keeps both testable without a broker.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Consumer drains grading jobs from the grade queue. It is the batch
// ingestion path used by the lesson-progress subsystem; interactive grading
// goes over HTTP.
type Consumer interface {
	Listen(ctx context.Context)
}

type consumer struct {
	channel        Channel
	gradeQueueName string
	engine         Grader
	responder      Responder
	logger         *zap.SugaredLogger
}

func NewConsumer(channel Channel, gradeQueueName string, engine Grader, responder Responder) Consumer {
	return &consumer{
		channel:        channel,
		gradeQueueName: gradeQueueName,
		engine:         engine,
		responder:      responder,
		logger:         logger.NewNamedLogger("consumer"),
	}
}

func (c *consumer) Listen(ctx context.Context) {
	c.logger.Infof("Declaring queue %s", c.gradeQueueName)

	_, err := c.channel.QueueDeclare(c.gradeQueueName, true, false, false, false, nil)
	if err != nil {
		c.logger.Panicf("Failed to declare queue %s: %s", c.gradeQueueName, err)
	}

	c.logger.Infof("Listening for messages on queue %s", c.gradeQueueName)

	msgs, err := c.channel.Consume(c.gradeQueueName, "", true, false, false, false, nil)
	if err != nil {
		c.logger.Panicf("Failed to consume messages from queue %s: %s", c.gradeQueueName, err)
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stopping queue consumer")
			return
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Warn("Delivery channel closed")
				return
			}
			c.dispatch(ctx, msg)
		}
	}
}

func (c *consumer) dispatch(ctx context.Context, msg amqp.Delivery) {
	var queueMessage messages.QueueMessage
	if err := json.Unmarshal(msg.Body, &queueMessage); err != nil {
		c.logger.Errorf("Failed to unmarshal message: %s", err)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, err)
		return
	}

	switch queueMessage.Type {
	case constants.QueueMessageTypeGrade:
		c.logger.Infof("Received grade message: %s", queueMessage.MessageID)
		c.handleGradeMessage(ctx, queueMessage)
	case constants.QueueMessageTypeStatus:
		c.logger.Infof("Received status message: %s", queueMessage.MessageID)
		c.handleStatusMessage(queueMessage)
	case constants.QueueMessageTypeHandshake:
		c.logger.Infof("Received handshake message: %s", queueMessage.MessageID)
		c.handleHandshakeMessage(queueMessage)
	default:
		c.logger.Errorf("Unknown message type: %s", queueMessage.Type)
		c.responder.PublishErrorToResponseQueue(
			queueMessage.Type,
			queueMessage.MessageID,
			errors.ErrUnknownMessageType)
	}
}

func (c *consumer) handleGradeMessage(ctx context.Context, queueMessage messages.QueueMessage) {
	var req messages.GradeRequest
	if err := json.Unmarshal(queueMessage.Payload, &req); err != nil {
		c.logger.Errorf("Failed to unmarshal grade message: %s", err)
		c.responder.PublishErrorToResponseQueue(
			queueMessage.Type,
			queueMessage.MessageID,
			errors.ErrFailedToUnmarshalGradeMessage)
		return
	}

	sub, vErr := validator.Validate(&req)
	if vErr != nil {
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, vErr)
		return
	}

	summary, err := c.engine.Grade(ctx, sub)
	if err != nil {
		c.logger.Errorf("Failed to grade submission %s: %s", queueMessage.MessageID, err)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, err)
		return
	}

	if err := c.responder.PublishGradeResult(queueMessage.Type, queueMessage.MessageID, summary); err != nil {
		c.logger.Errorf("Failed to publish grade result: %s", err)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, err)
	}
}

func (c *consumer) handleStatusMessage(queueMessage messages.QueueMessage) {
	status := c.engine.Status()

	if err := c.responder.PublishStatus(queueMessage.Type, queueMessage.MessageID, status); err != nil {
		c.logger.Errorf("Failed to publish status message: %s", err)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, err)
	}
}

func (c *consumer) handleHandshakeMessage(queueMessage messages.QueueMessage) {
	payload := messages.HandshakePayload{Languages: languages.GetSupportedLanguages()}

	if err := c.responder.PublishHandshake(queueMessage.Type, queueMessage.MessageID, payload); err != nil {
		c.logger.Errorf("Failed to publish supported languages: %s", err)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, err)
	}
}
