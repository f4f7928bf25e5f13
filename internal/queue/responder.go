package queue

import (
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/codelab-edu/grader/internal/grader"
	"github.com/codelab-edu/grader/internal/logger"
	"github.com/codelab-edu/grader/pkg/grading"
	"github.com/codelab-edu/grader/pkg/messages"
)

// Responder publishes grading outcomes to the response queue.
type Responder interface {
	PublishErrorToResponseQueue(messageType, messageID string, err error)
	PublishGradeResult(messageType, messageID string, summary *grading.Summary) error
	PublishHandshake(messageType, messageID string, payload messages.HandshakePayload) error
	PublishStatus(messageType, messageID string, status grader.PoolStatus) error
}

type responder struct {
	logger            *zap.SugaredLogger
	channel           Channel
	responseQueueName string
}

func NewResponder(channel Channel, responseQueueName string) Responder {
	return &responder{
		logger:            logger.NewNamedLogger("responder"),
		channel:           channel,
		responseQueueName: responseQueueName,
	}
}

func (r *responder) PublishErrorToResponseQueue(messageType, messageID string, err error) {
	errorPayload := map[string]string{"error": err.Error()}
	payload, jsonErr := json.Marshal(errorPayload)
	if jsonErr != nil {
		r.logger.Errorf("Failed to marshal error payload: %s", jsonErr)
		return
	}

	queueMessage := messages.ResponseQueueMessage{
		Type:      messageType,
		MessageID: messageID,
		Ok:        false,
		Payload:   payload,
	}

	responseJSON, jsonErr := json.Marshal(queueMessage)
	if jsonErr != nil {
		r.logger.Errorf("Failed to marshal response message: %s", jsonErr)
		return
	}

	err = r.channel.Publish("", r.responseQueueName, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: messageID,
		Body:          responseJSON,
	})
	if err != nil {
		r.logger.Errorf("Failed to publish error message: %s", err)
		return
	}

	r.logger.Infof("Published error message to response queue: %s", messageID)
}

func (r *responder) PublishGradeResult(messageType, messageID string, summary *grading.Summary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return r.publishRespondMessage(messageType, messageID, payload)
}

func (r *responder) PublishHandshake(messageType, messageID string, handshake messages.HandshakePayload) error {
	payload, err := json.Marshal(handshake)
	if err != nil {
		return err
	}
	return r.publishRespondMessage(messageType, messageID, payload)
}

func (r *responder) PublishStatus(messageType, messageID string, status grader.PoolStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return r.publishRespondMessage(messageType, messageID, payload)
}

func (r *responder) publishRespondMessage(messageType, messageID string, payload []byte) error {
	queueMessage := messages.ResponseQueueMessage{
		Type:      messageType,
		MessageID: messageID,
		Ok:        true,
		Payload:   payload,
	}

	responseJSON, jsonErr := json.Marshal(queueMessage)
	if jsonErr != nil {
		return jsonErr
	}

	r.logger.Infof("Publishing response message to response queue: %s", r.responseQueueName)
	return r.channel.Publish("", r.responseQueueName, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: messageID,
		Body:          responseJSON,
	})
}
