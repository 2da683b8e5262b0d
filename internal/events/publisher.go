package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/brain-product-parser/internal/models"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeProductParsed is published after a product record is stored
	EventTypeProductParsed EventType = "PRODUCT_PARSED"

	aggregateType = "product"
	source        = "brain-product-parser"
)

// ProductParsedPayload is the payload of a PRODUCT_PARSED event.
type ProductParsedPayload struct {
	EventID      string            `json:"event_id"`
	EventType    string            `json:"event_type"`
	Timestamp    time.Time         `json:"timestamp"`
	ProductID    int64             `json:"product_id"`
	Code         *string           `json:"code,omitempty"`
	Title        *string           `json:"title,omitempty"`
	RegularPrice *float64          `json:"regular_price,omitempty"`
	SourceURL    string            `json:"source_url"`
	Photos       int               `json:"photos"`
	Summary      map[string]string `json:"summary,omitempty"`
	Missing      []string          `json:"missing,omitempty"`
	Source       string            `json:"source"`
}

// StreamClient is the subset of the Redis client used for publishing.
type StreamClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

// Publisher writes product events to a Redis stream.
type Publisher struct {
	redis  StreamClient
	stream string
	logger *slog.Logger
}

func NewPublisher(client StreamClient, stream string, logger *slog.Logger) *Publisher {
	return &Publisher{
		redis:  client,
		stream: stream,
		logger: logger.With("component", "event_publisher"),
	}
}

// NewPayload describes a stored record.
func NewPayload(id int64, r *models.ProductRecord) *ProductParsedPayload {
	summary := make(map[string]string)
	for name, value := range map[string]models.Optional[string]{
		"manufacturer":      r.Manufacturer,
		"memory":            r.Memory,
		"color":             r.Color,
		"screen_diagonal":   r.ScreenDiagonal,
		"screen_resolution": r.ScreenResolution,
	} {
		if v, ok := value.Get(); ok {
			summary[name] = v
		}
	}

	return &ProductParsedPayload{
		ProductID:    id,
		Code:         r.Code.Ptr(),
		Title:        r.Title.Ptr(),
		RegularPrice: r.RegularPrice.Ptr(),
		SourceURL:    r.SourceURL,
		Photos:       len(r.Photos),
		Summary:      summary,
		Missing:      r.Missing(),
		Source:       source,
	}
}

// PublishProductParsed adds a PRODUCT_PARSED entry to the stream and returns
// the stream entry id.
func (p *Publisher) PublishProductParsed(ctx context.Context, payload *ProductParsedPayload) (string, error) {
	if payload.EventID == "" {
		payload.EventID = uuid.New().String()
	}
	if payload.EventType == "" {
		payload.EventType = string(EventTypeProductParsed)
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now().UTC()
	}

	streamData := map[string]interface{}{
		"id":             payload.EventID,
		"type":           payload.EventType,
		"aggregate_type": aggregateType,
		"aggregate_id":   fmt.Sprintf("%d", payload.ProductID),
		"timestamp":      payload.Timestamp.Format(time.RFC3339),
		"payload":        payload,
		"metadata": map[string]interface{}{
			"source":        source,
			"target_stream": p.stream,
		},
	}

	dataJSON, err := json.Marshal(streamData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal stream data: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":           string(dataJSON),
			"type":           payload.EventType,
			"timestamp":      fmt.Sprintf("%d", payload.Timestamp.UnixNano()),
			"original_id":    payload.EventID,
			"aggregate_id":   fmt.Sprintf("%d", payload.ProductID),
			"aggregate_type": aggregateType,
			"event_type":     payload.EventType,
		},
	}

	entryID, err := p.redis.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Info("event published",
		"event_id", payload.EventID,
		"event_type", payload.EventType,
		"product_id", payload.ProductID,
		"stream", p.stream,
		"entry_id", entryID)

	return entryID, nil
}

// Notify publishes the event for a stored record.
func (p *Publisher) Notify(ctx context.Context, id int64, r *models.ProductRecord) error {
	_, err := p.PublishProductParsed(ctx, NewPayload(id, r))
	return err
}
