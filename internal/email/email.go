package email

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/kafka"
	"github.com/Domenick1991/airreserve/internal/service/reservations"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ReservationReader loads the reservation an event refers to.
type ReservationReader interface {
	GetReservation(ctx context.Context, reservationID int64) (*reservations.Details, error)
}

type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Sender turns reservation events into notices for the travelers on file.
// Delivery is a structured log line until a relay is configured.
type Sender struct {
	from   string
	reader ReservationReader
	logger *zap.Logger
}

func NewSender(from string, reader ReservationReader, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{from: from, reader: reader, logger: logger}
}

// Send composes and delivers the notice for event. Events nobody needs to hear
// about, and reservations without a traveler email, are skipped.
func (s *Sender) Send(ctx context.Context, event kafka.ReservationEvent) error {
	details, err := s.reader.GetReservation(ctx, event.ReservationID)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			s.logger.Warn("notice for unknown reservation", zap.Int64("reservation_id", event.ReservationID))
			return nil
		}
		return fmt.Errorf("load reservation %d: %w", event.ReservationID, err)
	}

	msg, ok := Compose(s.from, event, details)
	if !ok {
		return nil
	}
	s.logger.Info("send email",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("type", event.Type),
		zap.Int64("reservation_id", event.ReservationID),
	)
	return nil
}

// Compose builds the notice for event, reporting false when there is nothing to send.
func Compose(from string, event kafka.ReservationEvent, details *reservations.Details) (Message, bool) {
	to := recipients(details.Travelers)
	if len(to) == 0 {
		return Message{}, false
	}

	code := event.Code
	var subject, body string
	switch event.Type {
	case kafka.EventReservationCreated:
		subject = fmt.Sprintf("Reservation %s is on hold", code)
		body = fmt.Sprintf("Pay %s before %s to keep your seats.",
			formatCents(details.Reservation.TotalPriceCents), event.ExpiresAt.UTC().Format(time.RFC1123))
	case kafka.EventReservationPaid:
		subject = fmt.Sprintf("Reservation %s confirmed", code)
		body = fmt.Sprintf("We received %s. Have a good flight.", formatCents(details.Reservation.TotalPriceCents))
	case kafka.EventReservationCancelled:
		subject = fmt.Sprintf("Reservation %s cancelled", code)
		body = "Your reservation was cancelled and its seats released."
		if event.CancelReason == string(domain.CancelReasonSegmentFailure) {
			body = "We could not seat every traveler, so the reservation was cancelled and its seats released."
		}
	case kafka.EventReservationExpired:
		subject = fmt.Sprintf("Reservation %s expired", code)
		body = "The hold ran out before payment and the seats were released."
	case kafka.EventSeatChanged:
		subject = fmt.Sprintf("Seat changed on reservation %s", code)
		body = "Your seat assignment was updated. Check your reservation for the new seat."
	default:
		return Message{}, false
	}
	return Message{From: from, To: to, Subject: subject, Body: body}, true
}

// Handler consumes reservation events. Malformed payloads are skipped.
func Handler(sender *Sender, logger *zap.Logger) kafka.Handler {
	return func(ctx context.Context, msg kafkago.Message) error {
		var event kafka.ReservationEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Warn("skipping malformed reservation event", zap.ByteString("key", msg.Key), zap.Error(err))
			return nil
		}
		return sender.Send(ctx, event)
	}
}

func recipients(travelers []domain.Traveler) []string {
	seen := make(map[string]bool, len(travelers))
	var out []string
	for _, t := range travelers {
		addr := strings.ToLower(strings.TrimSpace(t.Email))
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
