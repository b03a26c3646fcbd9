package expiry

import (
	"context"

	"github.com/Domenick1991/airreserve/internal/domain"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

type Expirer interface {
	ExpireReservation(ctx context.Context, reservationID int64) (bool, error)
}

type Activities struct {
	expirer Expirer
}

func NewActivities(expirer Expirer) *Activities {
	return &Activities{expirer: expirer}
}

func (a *Activities) ExpireReservation(ctx context.Context, reservationID int64) (bool, error) {
	expired, err := a.expirer.ExpireReservation(ctx, reservationID)
	switch domain.KindOf(err) {
	case domain.KindInternal:
		if err != nil {
			return false, err
		}
		return expired, nil
	case domain.KindNotFound:
		activity.GetLogger(ctx).Warn("reservation vanished before its hold expired", "reservationID", reservationID)
		return false, nil
	default:
		return false, temporal.NewNonRetryableApplicationError(err.Error(), domain.CodeOf(err), err)
	}
}

// Register adds the hold expiry workflow and its activity to a worker.
func Register(w worker.Registry, expirer Expirer) {
	w.RegisterWorkflowWithOptions(HoldExpiryWorkflow, workflow.RegisterOptions{Name: WorkflowName})
	w.RegisterActivityWithOptions(NewActivities(expirer).ExpireReservation, activity.RegisterOptions{Name: ActivityName})
}
