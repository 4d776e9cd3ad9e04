// Package notify delivers booking codes to customers by email (SendGrid)
// and SMS (Twilio).  Channels without credentials are skipped.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/iliyamo/reserve-my-spot/internal/config"
	"github.com/iliyamo/reserve-my-spot/internal/queue"
)

// Notifier sends confirmation and cancellation messages.
type Notifier struct {
	cfg   config.NotifyConfig
	email func(ctx context.Context, toName, toEmail, subject, body string) error
	sms   func(ctx context.Context, to, body string) error
}

// New returns a Notifier backed by SendGrid and Twilio.  Either client is
// left unset when its credentials are missing.
func New(cfg config.NotifyConfig) *Notifier {
	n := &Notifier{cfg: cfg}
	if cfg.EmailEnabled() {
		client := sendgrid.NewSendClient(cfg.SendGridAPIKey)
		from := mail.NewEmail(cfg.FromName, cfg.FromEmail)
		n.email = func(ctx context.Context, toName, toEmail, subject, body string) error {
			msg := mail.NewSingleEmail(from, subject, mail.NewEmail(toName, toEmail), body, "")
			resp, err := client.SendWithContext(ctx, msg)
			if err != nil {
				return fmt.Errorf("sendgrid: %w", err)
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
			}
			return nil
		}
	}
	if cfg.SMSEnabled() {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username:   cfg.TwilioSID,
			Password:   cfg.TwilioToken,
			AccountSid: cfg.TwilioSID,
		})
		n.sms = func(_ context.Context, to, body string) error {
			params := &openapi.CreateMessageParams{}
			params.SetTo(to)
			params.SetFrom(cfg.TwilioFrom)
			params.SetBody(body)
			if _, err := client.Api.CreateMessage(params); err != nil {
				return fmt.Errorf("twilio: %w", err)
			}
			return nil
		}
	}
	return n
}

// Notify sends ev to every configured channel.  Errors from individual
// channels are joined; a channel failing does not stop the others.
func (n *Notifier) Notify(ctx context.Context, ev queue.BookingEvent) error {
	subject, body := Message(ev)
	var errs []error
	if n.email != nil && ev.Email != "" {
		if err := n.email(ctx, ev.CustomerName, ev.Email, subject, body); err != nil {
			errs = append(errs, err)
		}
	}
	if n.sms != nil && ev.Phone != "" {
		to := ev.Phone
		if !strings.HasPrefix(to, "+") {
			log.Printf("notify: phone %q is not E.164, sms may fail", to)
		}
		if err := n.sms(ctx, to, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Message renders the subject and plain-text body for ev.
func Message(ev queue.BookingEvent) (subject, body string) {
	where := ev.SlotName
	if ev.OrganizationName != "" {
		where = ev.OrganizationName + " / " + ev.SlotName
	}
	switch ev.Type {
	case queue.QueueBookingCancelled:
		subject = fmt.Sprintf("Booking #%d cancelled", ev.BookingID)
		body = fmt.Sprintf("Hi %s, your booking at %s from %s to %s (vehicle %s) has been cancelled.",
			ev.CustomerName, where, ev.StartsAt, ev.EndsAt, ev.VehicleNumber)
	default:
		subject = fmt.Sprintf("Booking #%d confirmed", ev.BookingID)
		body = fmt.Sprintf("Hi %s, your spot at %s is reserved from %s to %s for vehicle %s. Total: %s. Token: %s PIN: %s",
			ev.CustomerName, where, ev.StartsAt, ev.EndsAt, ev.VehicleNumber, ev.TotalCost, ev.Token, ev.PIN)
	}
	return subject, body
}
