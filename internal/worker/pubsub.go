package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/weather"
)

// ErrInvalidMessage marks a message that can never be processed.
var ErrInvalidMessage = errors.New("invalid refresh message")

// RefreshMessage is the Pub/Sub payload that triggers a refresh. Either city or
// both coordinates must be set; coordinates win when both are.
type RefreshMessage struct {
	City string   `json:"city,omitempty"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
}

// ParseRefreshMessage decodes data into a weather query.
func ParseRefreshMessage(data []byte) (weather.Query, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return weather.Query{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	switch {
	case msg.Lat != nil && msg.Lon != nil:
		return weather.ByCoordinates(*msg.Lat, *msg.Lon), nil
	case msg.Lat != nil || msg.Lon != nil:
		return weather.Query{}, fmt.Errorf("%w: lat and lon must be sent together", ErrInvalidMessage)
	case strings.TrimSpace(msg.City) != "":
		return weather.ByCity(strings.TrimSpace(msg.City)), nil
	default:
		return weather.Query{}, fmt.Errorf("%w: %v", ErrInvalidMessage, weather.ErrInvalidQuery)
	}
}

// Disposition is what happens to a message after processing.
type Disposition int

const (
	// Ack removes the message from the subscription.
	Ack Disposition = iota
	// Nack asks Pub/Sub to redeliver the message.
	Nack
)

// MessageProcessor turns refresh messages into refresh runs.
type MessageProcessor struct {
	job    *RefreshJob
	logger zerolog.Logger
}

// NewMessageProcessor creates a processor that runs job for each message.
func NewMessageProcessor(job *RefreshJob, logger zerolog.Logger) *MessageProcessor {
	return &MessageProcessor{job: job, logger: logger}
}

// Process handles one message body. Messages that cannot succeed on redelivery
// are acked; provider failures are nacked.
func (p *MessageProcessor) Process(ctx context.Context, data []byte) Disposition {
	q, err := ParseRefreshMessage(data)
	if err != nil {
		p.logger.Warn().Err(err).Msg("dropping refresh message")
		return Ack
	}

	result := p.job.RunQuery(ctx, q)
	switch {
	case result.Err == nil:
		return Ack
	case errors.Is(result.Err, weather.ErrLocationNotFound),
		errors.Is(result.Err, weather.ErrMalformedObservation):
		return Ack
	default:
		return Nack
	}
}

// PubSubHandler receives refresh messages from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	processor        *MessageProcessor
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Processor        *MessageProcessor
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Refreshes replace one active observation; a small window is enough.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 4
	subscriber.ReceiveSettings.MaxExtension = 5 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		processor:        cfg.Processor,
		logger:           cfg.Logger,
	}, nil
}

// Start processes messages until ctx is cancelled. Receive errors restart the
// subscription with exponential backoff.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = time.Minute
	bo.MaxElapsedTime = 0

	receive := func() error {
		err := h.subscriber.Receive(ctx, h.handleMessage)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if err == nil {
			err = errors.New("receive returned without error")
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		h.logger.Warn().Err(err).
			Dur("retry_in", wait).
			Msg("pubsub receive failed, restarting")
	}

	err := backoff.RetryNotify(receive, backoff.WithContext(bo, ctx), notify)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	if h.processor.Process(ctx, msg.Data) == Nack {
		msg.Nack()
		return
	}
	msg.Ack()
}
