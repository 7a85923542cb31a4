package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/fruitables/internal/domain"
	"github.com/fjod/fruitables/internal/mail"
	"github.com/segmentio/kafka-go"
)

const confirmationSubject = "Fruitables order received"

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaReader(topic, groupID string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
}

// ConfirmationConsumer mails a confirmation to the address on every submitted
// checkout. Messages are committed once handled, whether or not the mail went out.
type ConfirmationConsumer struct {
	reader MessageReader
	mailer mail.Sender
	log    *slog.Logger
}

func NewConfirmationConsumer(reader MessageReader, mailer mail.Sender, log *slog.Logger) *ConfirmationConsumer {
	return &ConfirmationConsumer{reader: reader, mailer: mailer, log: log}
}

// Run consumes until ctx is done, then closes the reader.
func (c *ConfirmationConsumer) Run(ctx context.Context) {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.log.Error("error closing kafka reader", "error", err)
		}
	}()
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.processMessage(ctx); err != nil && ctx.Err() == nil {
			c.log.ErrorContext(ctx, "failed to process checkout message", "error", err)
		}
	}
}

func (c *ConfirmationConsumer) processMessage(ctx context.Context) error {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("error reading message: %w", err)
	}

	c.handle(ctx, m)

	if err := c.reader.CommitMessages(ctx, m); err != nil {
		return fmt.Errorf("failed to commit offset %d: %w", m.Offset, err)
	}
	return nil
}

func (c *ConfirmationConsumer) handle(ctx context.Context, m kafka.Message) {
	if t := eventType(m); t != "" && t != domain.EventCheckoutSubmitted {
		c.log.DebugContext(ctx, "skipping event", "event_type", t)
		return
	}

	var event domain.CheckoutSubmitted
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.log.WarnContext(ctx, "error parsing checkout event", "offset", m.Offset, "error", err)
		return
	}
	if event.Email == "" {
		c.log.WarnContext(ctx, "checkout event without email", "checkout_id", event.CheckoutID)
		return
	}

	if err := c.mailer.Send(ctx, event.Email, confirmationSubject, confirmationBody(event)); err != nil {
		c.log.WarnContext(ctx, "failed to send checkout confirmation",
			"checkout_id", event.CheckoutID, "error", err)
		return
	}
	c.log.InfoContext(ctx, "checkout confirmation sent", "checkout_id", event.CheckoutID)
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}

func confirmationBody(e domain.CheckoutSubmitted) string {
	return fmt.Sprintf("Hi %s,\n\nwe received your order %s.\nPayment method: %s\nShipping to: %s, %s\n",
		e.Fullname, e.CheckoutID, e.PaymentMethod, e.City, e.Country)
}
