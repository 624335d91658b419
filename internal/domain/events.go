package domain

import (
	"context"
	"time"
)

type Topic string

// Event vocabulary shared with the other widgets on the page.
const (
	TopicCartChanged Topic = "cart:changed"
)

type Event struct {
	ID      string    `json:"id"`
	Topic   Topic     `json:"topic"`
	Source  string    `json:"source"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// CartChanged is the payload of TopicCartChanged.
type CartChanged struct {
	VariantID int64   `json:"variantId"`
	Response  RawJSON `json:"response"`
}

type Bus interface {
	Publish(ctx context.Context, event Event)
	Subscribe(topic Topic, handler func(Event)) (unsubscribe func())
}
