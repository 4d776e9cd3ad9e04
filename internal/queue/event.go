// Package queue defines message payloads exchanged over the message broker
// and the consumer that processes them.
package queue

// Queue names.  Routing keys equal queue names on the default exchange.
const (
	QueueBookingConfirmed = "booking.confirmed"
	QueueBookingCancelled = "booking.cancelled"
)

// BookingEvent is published after a booking is confirmed or cancelled.  It
// carries enough for consumers to log and notify the customer without
// querying the primary database.
type BookingEvent struct {
	Type             string `json:"type"`
	BookingID        uint64 `json:"booking_id"`
	SlotID           uint64 `json:"slot_id"`
	SlotName         string `json:"slot_name,omitempty"`
	OrganizationName string `json:"organization_name,omitempty"`
	Address          string `json:"address,omitempty"`
	CustomerName     string `json:"customer_name"`
	Phone            string `json:"phone"`
	Email            string `json:"email,omitempty"`
	VehicleNumber    string `json:"vehicle_number"`
	StartsAt         string `json:"starts_at"`
	EndsAt           string `json:"ends_at"`
	TotalCost        string `json:"total_cost"`
	Token            string `json:"token,omitempty"`
	PIN              string `json:"pin,omitempty"`
	OccurredAt       string `json:"occurred_at"`
}
