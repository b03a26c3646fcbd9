package expiry

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"
)

// Scheduler starts one hold expiry workflow per reservation.
type Scheduler struct {
	client    client.Client
	taskQueue string
}

func NewScheduler(c client.Client, taskQueue string) *Scheduler {
	return &Scheduler{client: c, taskQueue: taskQueue}
}

func (s *Scheduler) ScheduleExpiry(ctx context.Context, reservationID int64, deadline time.Time) error {
	opts := client.StartWorkflowOptions{
		ID:        WorkflowID(reservationID),
		TaskQueue: s.taskQueue,
	}
	input := HoldExpiryInput{ReservationID: reservationID, Deadline: deadline}
	if _, err := s.client.ExecuteWorkflow(ctx, opts, WorkflowName, input); err != nil {
		return fmt.Errorf("failed to start hold expiry workflow: %w", err)
	}
	return nil
}
