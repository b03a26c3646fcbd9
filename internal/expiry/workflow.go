package expiry

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	WorkflowName = "HoldExpiryWorkflow"
	ActivityName = "ExpireReservation"

	// grace keeps the activity strictly after the deadline.
	grace = time.Second
)

type HoldExpiryInput struct {
	ReservationID int64     `json:"reservation_id"`
	Deadline      time.Time `json:"deadline"`
}

// WorkflowID is stable per reservation so scheduling twice starts one timer.
func WorkflowID(reservationID int64) string {
	return fmt.Sprintf("reservation-hold-%d", reservationID)
}

// HoldExpiryWorkflow sleeps until the hold deadline and then expires the
// reservation. Expiry is a no-op for reservations paid or cancelled meanwhile.
func HoldExpiryWorkflow(ctx workflow.Context, input HoldExpiryInput) (bool, error) {
	logger := workflow.GetLogger(ctx)

	if wait := input.Deadline.Sub(workflow.Now(ctx)); wait > 0 {
		if err := workflow.Sleep(ctx, wait+grace); err != nil {
			return false, err
		}
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    10,
		},
	})

	var expired bool
	if err := workflow.ExecuteActivity(ctx, ActivityName, input.ReservationID).Get(ctx, &expired); err != nil {
		return false, err
	}
	logger.Info("hold expiry checked", "reservationID", input.ReservationID, "expired", expired)
	return expired, nil
}
