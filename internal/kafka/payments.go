package kafka

import (
	"context"
	"encoding/json"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PaymentSink applies a confirmed payment to its reservation.
type PaymentSink interface {
	ConfirmPayment(ctx context.Context, reservationID, amountCents int64, paymentRef string) (*domain.Reservation, error)
}

// PaymentHandler decodes payment-confirmed messages. Malformed messages and
// business rejections are logged and skipped so one bad event cannot stall the
// partition; infrastructure errors stop the consumer.
func PaymentHandler(sink PaymentSink, logger *zap.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event PaymentConfirmed
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Warn("skipping malformed payment event", zap.ByteString("key", msg.Key), zap.Error(err))
			return nil
		}

		_, err := sink.ConfirmPayment(ctx, event.ReservationID, event.AmountCents, event.PaymentRef)
		switch {
		case err == nil:
			logger.Info("payment applied", zap.Int64("reservation_id", event.ReservationID), zap.String("payment_ref", event.PaymentRef))
			return nil
		case domain.KindOf(err) != domain.KindInternal:
			logger.Warn("payment rejected",
				zap.Int64("reservation_id", event.ReservationID),
				zap.String("code", domain.CodeOf(err)),
				zap.Error(err),
			)
			return nil
		default:
			return err
		}
	}
}
