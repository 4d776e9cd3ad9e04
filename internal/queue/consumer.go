package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Notifier delivers a booking event to the customer.
type Notifier interface {
	Notify(ctx context.Context, ev BookingEvent) error
}

// Handler processes deliveries: each event is appended to
// <LogDir>/booking.log and, when a Notifier is set, sent to the customer.
type Handler struct {
	LogDir   string
	Notifier Notifier

	mu sync.Mutex // serialises writes to the log file
}

// StartBookingConsumer connects to RabbitMQ, declares the booking queues
// (durable) and consumes them until ctx is cancelled.  Broker failures
// are retried with exponential backoff so the server keeps operating
// while the broker is down.
func StartBookingConsumer(ctx context.Context, url string, h *Handler) {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("booking-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, h)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		log.Printf("booking-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, h *Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("booking-consumer: set QoS failed: %v", err)
	}

	merged := make(chan amqp.Delivery)
	var wg sync.WaitGroup
	for _, name := range []string{QueueBookingConfirmed, QueueBookingCancelled} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range msgs {
				select {
				case merged <- d:
				case <-ctx.Done():
					_ = d.Nack(false, true)
					return
				}
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return errors.New("deliveries channel closed")
		case d := <-merged:
			if err := h.Handle(ctx, d.Body); err != nil {
				log.Printf("booking-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false) // do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one delivery body, logs it and notifies the customer.
// A notification failure is logged but does not fail the delivery.
func (h *Handler) Handle(ctx context.Context, body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := h.appendLog(ev); err != nil {
		return err
	}
	if h.Notifier != nil {
		if err := h.Notifier.Notify(ctx, ev); err != nil {
			log.Printf("booking-consumer: notify booking %d: %v", ev.BookingID, err)
		}
	}
	return nil
}

func (h *Handler) appendLog(ev BookingEvent) error {
	dir := h.LogDir
	if dir == "" {
		dir = "logs"
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLogLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLogLine renders ev as one booking.log line.  Access codes are
// never written to the log.
func FormatLogLine(ev BookingEvent) string {
	verb := "confirmed"
	if ev.Type == QueueBookingCancelled {
		verb = "cancelled"
	}
	return fmt.Sprintf("[%s] Booking %s | booking_id=%d | slot_id=%d | organization=%q | slot=%q | vehicle=%s | from=%s | to=%s | total=%s\n",
		ev.OccurredAt, verb, ev.BookingID, ev.SlotID, ev.OrganizationName, ev.SlotName, ev.VehicleNumber, ev.StartsAt, ev.EndsAt, ev.TotalCost)
}
