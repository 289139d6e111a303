// Package jobs publishes asynchronous work to Pub/Sub: outbound emails and
// media enrichment, both consumed by workers that call back on the internal
// push routes.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/matjar-app/api/internal/platform/config"
)

const (
	attrJobType = "jobType"

	// JobTypeEmail delivers a merchant email.
	JobTypeEmail = "email"
	// JobTypeCaption asks the media worker for a product caption.
	JobTypeCaption = "caption"
	// JobTypeBackgroundRemoval asks the media worker to cut out the image
	// background.
	JobTypeBackgroundRemoval = "background_removal"
)

var errTopicNotConfigured = errors.New("jobs: topic not configured")

// EmailJob is the payload of an email delivery job.
type EmailJob struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// MediaJob is the payload of a media enrichment job.
type MediaJob struct {
	Kind      string `json:"kind"`
	StoreID   string `json:"storeId"`
	ProductID string `json:"productId"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// Publisher publishes job envelopes to the configured topics.
type Publisher struct {
	client            *pubsub.Client
	notificationTopic *pubsub.Topic
	mediaTopic        *pubsub.Topic
	publishTimeout    time.Duration
}

// NewPublisher connects to Pub/Sub and binds the configured topics. A
// missing topic name leaves that pipeline disabled.
func NewPublisher(ctx context.Context, cfg config.PubSubConfig) (*Publisher, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, errors.New("jobs: project id is required")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("jobs: create pubsub client: %w", err)
	}

	publisher := &Publisher{client: client, publishTimeout: 15 * time.Second}
	if topic := strings.TrimSpace(cfg.NotificationTopic); topic != "" {
		publisher.notificationTopic = client.Topic(topic)
	}
	if topic := strings.TrimSpace(cfg.MediaJobsTopic); topic != "" {
		publisher.mediaTopic = client.Topic(topic)
	}
	return publisher, nil
}

// EnqueueEmail publishes an email job on the notification topic.
func (p *Publisher) EnqueueEmail(ctx context.Context, recipient, subject, body string) error {
	return p.publish(ctx, p.notificationTopic, JobTypeEmail, EmailJob{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
	})
}

// EnqueueCaptionJob publishes a caption request on the media topic.
func (p *Publisher) EnqueueCaptionJob(ctx context.Context, storeID, productID string) error {
	return p.publish(ctx, p.mediaTopic, JobTypeCaption, MediaJob{
		Kind:      JobTypeCaption,
		StoreID:   storeID,
		ProductID: productID,
	})
}

// EnqueueBackgroundRemovalJob publishes a background removal request on the
// media topic.
func (p *Publisher) EnqueueBackgroundRemovalJob(ctx context.Context, storeID, productID, imageURL string) error {
	return p.publish(ctx, p.mediaTopic, JobTypeBackgroundRemoval, MediaJob{
		Kind:      JobTypeBackgroundRemoval,
		StoreID:   storeID,
		ProductID: productID,
		ImageURL:  imageURL,
	})
}

func (p *Publisher) publish(ctx context.Context, topic *pubsub.Topic, jobType string, payload any) error {
	if p == nil || topic == nil {
		return errTopicNotConfigured
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("jobs: encode %s job: %w", jobType, err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()

	result := topic.Publish(publishCtx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{attrJobType: jobType},
	})
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("jobs: publish %s job: %w", jobType, err)
	}
	return nil
}

// Close stops the topics and releases the client.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.notificationTopic != nil {
		p.notificationTopic.Stop()
	}
	if p.mediaTopic != nil {
		p.mediaTopic.Stop()
	}
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
