package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"
)

// Publisher enqueues email jobs on a Pub/Sub topic. A separate worker drains
// the topic and talks SMTP.
type Publisher struct {
	topic        *pubsub.Topic
	adminAddress string
	marshal      func(any) ([]byte, error)
}

// PublisherOption configures optional publisher behaviour.
type PublisherOption func(*Publisher)

// WithAdminCopy sends an admin-addressed copy of each confirmation.
func WithAdminCopy(address string) PublisherOption {
	return func(p *Publisher) {
		p.adminAddress = strings.TrimSpace(address)
	}
}

// NewPublisher constructs a Pub/Sub backed email job publisher.
func NewPublisher(topic *pubsub.Topic, opts ...PublisherOption) (*Publisher, error) {
	if topic == nil {
		return nil, errors.New("notifications publisher: topic is required")
	}
	p := &Publisher{
		topic:   topic,
		marshal: json.Marshal,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// PublishOrderConfirmation renders the confirmation mail and enqueues one job
// for the customer plus, when configured, one for the admin address. It
// returns the ids of the published messages.
func (p *Publisher) PublishOrderConfirmation(ctx context.Context, data OrderConfirmation) ([]string, error) {
	if p == nil || p.topic == nil {
		return nil, errors.New("notifications publisher: not initialised")
	}

	job, err := BuildOrderConfirmation(data)
	if err != nil {
		return nil, err
	}

	recipient := strings.TrimSpace(data.Order.Email)
	if recipient == "" {
		return nil, errors.New("notifications publisher: order has no customer email")
	}

	recipients := []string{recipient}
	if p.adminAddress != "" && !strings.EqualFold(p.adminAddress, recipient) {
		recipients = append(recipients, p.adminAddress)
	}

	ids := make([]string, 0, len(recipients))
	for _, addr := range recipients {
		job.Recipient = addr
		id, err := p.publishJob(ctx, job)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (p *Publisher) publishJob(ctx context.Context, job EmailJob) (string, error) {
	data, err := p.marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal email job: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"type":    job.Type,
			"orderId": job.OrderID,
		},
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish email job: %w", err)
	}
	return id, nil
}
