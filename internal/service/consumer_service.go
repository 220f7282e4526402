package service

import (
	"context"
	"encoding/json"
	"strings"

	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/pkg/logger"
	"assembly-dashboard-be/pkg/events"
	pktNats "assembly-dashboard-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
)

// SnapshotDelivery pushes a message to every listener of one dashboard.
// Typically implemented by the WebSocket Hub.
type SnapshotDelivery interface {
	Send(sessionID string, message []byte)
}

// EventForwarder republishes dashboard events outside the process.
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    message.Subscriber
	topicName string
	delivery  SnapshotDelivery
	forwarder EventForwarder
	logger    logger.ILogger
}

// NewConsumerService fans the in-process event bus out to websocket listeners and the external
// stream. delivery and forwarder may be nil.
func NewConsumerService(
	pubSub message.Subscriber,
	topicName string,
	delivery SnapshotDelivery,
	forwarder EventForwarder,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		delivery:  delivery,
		forwarder: forwarder,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	event, err := pktNats.Decode(msg.Payload)
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to decode dashboard event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // malformed, retrying cannot help
		return
	}

	sessionID, _ := event.Data["session_id"].(string)
	if cs.delivery != nil && sessionID != "" {
		data, err := json.Marshal(event.Data)
		if err == nil {
			push, _ := json.Marshal(dto.PushMessage{
				Type:      strings.ToLower(event.Type),
				SessionID: sessionID,
				Data:      data,
			})
			cs.delivery.Send(sessionID, push)
		}
	}

	if cs.forwarder != nil {
		// Best effort: a failed forward is logged, never redelivered.
		if err := cs.forwarder.Publish(ctx, event); err != nil {
			cs.logger.Warn("ConsumerService", "Failed to forward event to NATS", map[string]interface{}{
				"type":  event.Type,
				"error": err.Error(),
			})
		}
	}

	msg.Ack()
}
