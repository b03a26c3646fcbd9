package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockPaymentSink struct {
	mock.Mock
}

func (m *MockPaymentSink) ConfirmPayment(ctx context.Context, reservationID, amountCents int64, paymentRef string) (*domain.Reservation, error) {
	args := m.Called(ctx, reservationID, amountCents, paymentRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func paymentMessage(body string) kafka.Message {
	return kafka.Message{Key: []byte("7"), Value: []byte(body)}
}

func TestPaymentHandler(t *testing.T) {
	ctx := context.Background()
	sink := &MockPaymentSink{}
	handle := PaymentHandler(sink, zap.NewNop())

	sink.On("ConfirmPayment", ctx, int64(7), int64(60000), "p-1").
		Return(&domain.Reservation{ID: 7, Status: domain.ReservationPaid}, nil)

	err := handle(ctx, paymentMessage(`{"reservation_id":7,"amount_cents":60000,"payment_ref":"p-1"}`))

	assert.NoError(t, err)
	sink.AssertExpectations(t)
}

func TestPaymentHandler_SkipsMalformed(t *testing.T) {
	sink := &MockPaymentSink{}
	handle := PaymentHandler(sink, zap.NewNop())

	assert.NoError(t, handle(context.Background(), paymentMessage(`{"reservation_id":`)))
	sink.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentHandler_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"mismatch", domain.Validation("PAYMENT_AMOUNT_MISMATCH", "amount does not match"), false},
		{"expired", domain.StateConflict("RESERVATION_EXPIRED", "reservation expired"), false},
		{"unknown reservation", domain.NotFound("reservation"), false},
		{"infrastructure", errors.New("connection refused"), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			sink := &MockPaymentSink{}
			handle := PaymentHandler(sink, zap.NewNop())
			sink.On("ConfirmPayment", ctx, int64(7), int64(100), "").Return(nil, tc.err)

			err := handle(ctx, paymentMessage(`{"reservation_id":7,"amount_cents":100}`))

			if tc.wantErr {
				assert.ErrorIs(t, err, tc.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
