package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/xenitV1/owl-chat/internal/infrastructure/contracts"
	"github.com/xenitV1/owl-chat/internal/infrastructure/logging"
	"github.com/xenitV1/owl-chat/internal/infrastructure/messaging"
	"github.com/xenitV1/owl-chat/internal/infrastructure/ws"
)

// BusPublisher fans room events out through a broker so every instance
// of the service delivers them to its own connections. Local delivery
// happens first; peers receive the same event minus the connection
// exclusions, which are meaningless outside the publishing process.
type BusPublisher struct {
	instanceID string
	local      ws.Publisher
	rabbitmq   *messaging.RabbitMQ
	logger     logging.Logger
}

func NewBusPublisher(local ws.Publisher, rabbitmq *messaging.RabbitMQ, logger logging.Logger) *BusPublisher {
	return &BusPublisher{
		instanceID: uuid.NewString(),
		local:      local,
		rabbitmq:   rabbitmq,
		logger:     logger,
	}
}

func (p *BusPublisher) Publish(roomID string, evt *ws.ServerEvent, excludeConns ...string) {
	p.local.Publish(roomID, evt, excludeConns...)

	data, err := json.Marshal(evt)
	if err != nil {
		p.logger.Errorw("failed to marshal bus event", "room", roomID, "event", evt.Event, "error", err)
		return
	}

	err = p.rabbitmq.PublishMessage(context.Background(), contracts.EventChatBroadcast, contracts.AmqpMessage{
		OriginID: p.instanceID,
		RoomID:   roomID,
		Data:     data,
	})
	if err != nil {
		// Peers miss this event; local clients already have it.
		p.logger.Errorw("failed to publish bus event", "room", roomID, "event", evt.Event, "error", err)
	}
}

// Listen consumes peer broadcasts and replays them to local connections.
func (p *BusPublisher) Listen() error {
	return p.rabbitmq.ConsumeMessages([]string{contracts.EventChatBroadcast}, func(ctx context.Context, msg amqp.Delivery) error {
		var message contracts.AmqpMessage
		if err := json.Unmarshal(msg.Body, &message); err != nil {
			p.logger.Warnw("failed to unmarshal bus message", "error", err)
			return err
		}

		if message.OriginID == p.instanceID {
			return nil // already delivered locally
		}

		var evt ws.ServerEvent
		if err := json.Unmarshal(message.Data, &evt); err != nil {
			p.logger.Warnw("failed to unmarshal bus event", "error", err)
			return err
		}

		p.local.Publish(message.RoomID, &evt)
		return nil
	})
}
