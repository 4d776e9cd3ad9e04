// Package service adapts booking lifecycle events to RabbitMQ messages.
// Errors are logged and returned so callers can ignore failures without
// interrupting the request flow.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/reserve-my-spot/internal/booking"
	q "github.com/iliyamo/reserve-my-spot/internal/queue"
)

// DisplayLayout is the format used for booking times in messages.
const DisplayLayout = "2006-01-02 15:04"

// Publisher implements booking.EventSink on top of RabbitMQ.  Each
// publish opens its own connection.
type Publisher struct {
	url string
	loc *time.Location
}

// NewPublisher returns a Publisher for the broker at url.  Times in
// messages are rendered in loc (UTC when nil).
func NewPublisher(url string, loc *time.Location) *Publisher {
	if loc == nil {
		loc = time.UTC
	}
	return &Publisher{url: url, loc: loc}
}

// Publish sends ev to the queue named after its type.  Messages are
// persistent and carry a random message id.
func (p *Publisher) Publish(ctx context.Context, ev booking.Event) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	queueName := string(ev.Type)
	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ToBookingEvent(ev, p.loc))
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    ev.At.UTC(),
		Type:         queueName,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// ToBookingEvent flattens a lifecycle event into its wire payload.  Access
// codes are only included for confirmations.
func ToBookingEvent(ev booking.Event, loc *time.Location) q.BookingEvent {
	b := ev.Booking
	out := q.BookingEvent{
		Type:          string(ev.Type),
		BookingID:     b.ID,
		SlotID:        b.SlotID,
		CustomerName:  b.CustomerName,
		Phone:         b.Phone,
		Email:         b.Email,
		VehicleNumber: b.VehicleNumber,
		StartsAt:      b.StartAt.In(loc).Format(DisplayLayout),
		EndsAt:        b.EndAt.In(loc).Format(DisplayLayout),
		TotalCost:     b.TotalCost.StringFixed(2),
		OccurredAt:    ev.At.UTC().Format(time.RFC3339),
	}
	if ev.Slot != nil {
		out.SlotName = ev.Slot.Name
		out.OrganizationName = ev.Slot.OrganizationName
		out.Address = ev.Slot.Address
		if out.Address == "" {
			out.Address = ev.Slot.OrganizationAddress
		}
	}
	if ev.Type == booking.EventConfirmed {
		out.Token = b.Token
		out.PIN = b.PIN
	}
	return out
}
