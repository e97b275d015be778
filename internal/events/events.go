// Package events publishes storefront domain events.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	OrderConfirmedTopic  = "order.confirmed"
	ReviewSubmittedTopic = "review.submitted"
)

type Event struct {
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Key     string      `json:"key"`
	Payload interface{} `json:"payload"`
	Time    time.Time   `json:"time"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType, key string, payload interface{}) Event {
	return Event{ID: uuid.NewString(), Type: eventType, Key: key, Payload: payload, Time: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type OrderConfirmed struct {
	OrderID       int     `json:"order_id"`
	CustomerID    string  `json:"customer_id"`
	TotalAmount   float64 `json:"total_amount"`
	PaymentMethod string  `json:"payment_method"`
}

type ReviewSubmitted struct {
	ProductID  int    `json:"product_id"`
	CustomerID string `json:"customer_id"`
	Rating     int    `json:"rating"`
}

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	logger *logrus.Logger
}

func NewLogPublisher(logger *logrus.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.logger.WithFields(logrus.Fields{
		"event_id": e.ID,
		"type":     e.Type,
		"key":      e.Key,
	}).Info("event published")
	return nil
}
