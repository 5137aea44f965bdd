package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/pkg/errors"

	"example.com/backstage/services/ingest/config"
	"example.com/backstage/services/ingest/internal/models"
)

// ServiceBusPublisher sends record events to an Azure Service Bus queue
type ServiceBusPublisher struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	queueName string
	source    string
}

// NewServiceBusPublisher creates a sender for the configured queue
func NewServiceBusPublisher(cfg config.ServiceBusConfig, source string) (*ServiceBusPublisher, error) {
	if cfg.ConnectionString == "" {
		return nil, errors.New("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		_ = client.Close(context.Background())
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &ServiceBusPublisher{
		client:    client,
		sender:    sender,
		queueName: cfg.QueueName,
		source:    source,
	}, nil
}

// Name identifies the publisher in logs and metrics
func (p *ServiceBusPublisher) Name() string {
	return "servicebus"
}

// Publish sends one event
func (p *ServiceBusPublisher) Publish(ctx context.Context, event models.RecordEvent) error {
	msg, err := NewEventMessage(event, p.source)
	if err != nil {
		return err
	}

	if err := p.sender.SendMessage(ctx, msg, nil); err != nil {
		return errors.Wrapf(err, "failed to send %s to queue %s", event.Type, p.queueName)
	}
	return nil
}

// Close closes the sender and the client
func (p *ServiceBusPublisher) Close() error {
	if p.sender != nil {
		if err := p.sender.Close(context.Background()); err != nil {
			return err
		}
	}

	if p.client != nil {
		return p.client.Close(context.Background())
	}

	return nil
}

// NewEventMessage builds the queue message for an event.
// Messages for one record share a session so consumers see them in order.
func NewEventMessage(event models.RecordEvent, source string) (*azservicebus.Message, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal message body")
	}

	contentType := "application/json"
	subject := event.Type
	sessionID := event.RecordID

	return &azservicebus.Message{
		Body:        body,
		ContentType: &contentType,
		Subject:     &subject,
		SessionID:   &sessionID,
		ApplicationProperties: map[string]any{
			"source":    source,
			"eventType": event.Type,
			"time":      event.OccurredAt.UTC().Format(time.RFC3339),
		},
	}, nil
}
