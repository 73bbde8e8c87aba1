package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"stock-notification-service/app/domain"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
)

type stockBroker struct {
	js      jetstream.JetStream
	subject string
}

func NewStockBrokerPublisher(stream jetstream.JetStream, streamName string) domain.BrokerPublisher {
	return &stockBroker{
		js:      stream,
		subject: strings.ToLower(streamName) + ".available",
	}
}

func (s *stockBroker) PublishStockAvailable(ctx context.Context, data domain.StockMessage) error {
	msg, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "[stockBroker] PublishStockAvailable", "json.Marshal", err)
		return err
	}

	if _, err = s.js.Publish(ctx, s.subject, msg); err != nil {
		slog.ErrorContext(ctx, "[stockBroker] PublishStockAvailable", "Publish", err)
		return err
	}

	slog.InfoContext(ctx, "[stockBroker] PublishStockAvailable", "subject", s.subject, "productID", data.ProductID, "available", data.Available)
	return nil
}
