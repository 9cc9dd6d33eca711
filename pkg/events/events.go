package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/diagnosis/pakbooking/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("pakbooking-client"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	n.conn.Close()
	return nil
}

// Open returns a NATS publisher when url is set and a no-op publisher
// otherwise.
func Open(url string) (Publisher, error) {
	if url == "" {
		return Nop{}, nil
	}
	return NewNATSPublisher(url)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }
func (Nop) Close() error                                      { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Message
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

func (r *Recorder) Publish(_ context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Message{Subject: subject, Data: payload, Timestamp: time.Now()})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Subjects returns the subjects published so far, in order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Subject)
	}
	return out
}

// Event types and subjects
const (
	// Session events
	SessionStarted = "session.started"
	SessionEnded   = "session.ended"
	SessionExpired = "session.expired"

	// Booking events
	BookingSubmitted = "booking.submitted"
	BookingCancelled = "booking.cancelled"

	// Payment events
	PaymentSubmitted = "payment.submitted"
)

// Event payloads
type SessionEvent struct {
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type BookingSubmittedEvent struct {
	BookingID      string    `json:"booking_id"`
	PropertyID     string    `json:"property_id"`
	CheckIn        string    `json:"check_in"`
	CheckOut       string    `json:"check_out"`
	Guests         int       `json:"guests"`
	TotalPrice     string    `json:"total_price"`
	IdempotencyKey string    `json:"idempotency_key"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type BookingCancelledEvent struct {
	BookingID   string    `json:"booking_id"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type PaymentSubmittedEvent struct {
	BookingID     string    `json:"booking_id"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	SubmittedAt   time.Time `json:"submitted_at"`
}
