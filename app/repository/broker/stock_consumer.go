package broker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"stock-notification-service/app/domain"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go/jetstream"
)

type AckDecision int

const (
	Ack AckDecision = iota
	Nak
)

// StockLevelConsumer feeds stock level changes published by other services
// into the dispatcher.
type StockLevelConsumer struct {
	js         jetstream.JetStream
	dispatcher domain.Dispatcher
	validator  *validator.Validate
	stream     string
	timeout    time.Duration

	consumeCtx jetstream.ConsumeContext
}

func NewStockLevelConsumer(js jetstream.JetStream, dispatcher domain.Dispatcher, validator *validator.Validate, streamName string) *StockLevelConsumer {
	return &StockLevelConsumer{
		js:         js,
		dispatcher: dispatcher,
		validator:  validator,
		stream:     streamName,
		timeout:    30 * time.Second,
	}
}

func (c *StockLevelConsumer) Subject() string {
	return strings.ToLower(c.stream) + ".level_changed"
}

func (c *StockLevelConsumer) Start(ctx context.Context) error {
	cons, err := c.js.CreateOrUpdateConsumer(ctx, strings.ToUpper(c.stream), jetstream.ConsumerConfig{
		Durable:       "stock-notification-service",
		FilterSubject: c.Subject(),
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    5,
	})
	if err != nil {
		slog.ErrorContext(ctx, "[StockLevelConsumer] Start", "createOrUpdateConsumer", err)
		return err
	}

	consumeCtx, err := cons.Consume(func(msg jetstream.Msg) {
		msgCtx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		switch c.Handle(msgCtx, msg.Data()) {
		case Ack:
			if err := msg.Ack(); err != nil {
				slog.WarnContext(msgCtx, "[StockLevelConsumer] Consume", "ack", err)
			}
		case Nak:
			if err := msg.Nak(); err != nil {
				slog.WarnContext(msgCtx, "[StockLevelConsumer] Consume", "nak", err)
			}
		}
	})
	if err != nil {
		slog.ErrorContext(ctx, "[StockLevelConsumer] Start", "consume", err)
		return err
	}
	c.consumeCtx = consumeCtx

	slog.InfoContext(ctx, "[StockLevelConsumer] Start", "subject", c.Subject())
	return nil
}

func (c *StockLevelConsumer) Stop() {
	if c.consumeCtx != nil {
		c.consumeCtx.Stop()
	}
}

// Handle decodes one message and runs dispatch for it. Malformed messages
// are acked so they are not redelivered; store failures are nak'ed.
func (c *StockLevelConsumer) Handle(ctx context.Context, data []byte) AckDecision {
	var msg domain.StockLevelMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.ErrorContext(ctx, "[StockLevelConsumer] Handle", "json.Unmarshal", err)
		return Ack
	}
	if err := c.validator.Struct(msg); err != nil {
		slog.ErrorContext(ctx, "[StockLevelConsumer] Handle", "validation", err)
		return Ack
	}

	report, err := c.dispatcher.OnStockChange(ctx, msg.ProductID, *msg.PreviousLevel, *msg.NewLevel)
	if err != nil {
		var dispatchErr *domain.DispatchError
		if !errors.As(err, &dispatchErr) && errors.Is(err, domain.ErrStoreFailure) {
			slog.ErrorContext(ctx, "[StockLevelConsumer] Handle", "dispatch", err)
			return Nak
		}
		// Per-notification failures stay ACTIVE and are picked up by the next restock.
		slog.WarnContext(ctx, "[StockLevelConsumer] Handle", "dispatch", err)
	}

	slog.InfoContext(ctx, "[StockLevelConsumer] Handle", "report", report)
	return Ack
}
