package river

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

// Notifier tells a citizen their number has been called.
type Notifier interface {
	Notify(ctx context.Context, event EventJobArgs) error
}

// LogNotifier stands in for an SMS gateway by logging the message.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, e EventJobArgs) error {
	slog.InfoContext(ctx, "notifying citizen",
		"ticket_id", e.TicketID,
		"number", e.Number,
		"phone", e.CitizenPhone,
	)
	return nil
}

// EventWorker processes ticket event jobs from the River queue.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
	notifier Notifier
}

// Work logs the event and, for a called ticket with a phone number, hands
// it to the notifier. A notifier error makes River retry the job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	slog.InfoContext(ctx, "processing ticket event",
		"event", job.Args.Event,
		"ticket_id", job.Args.TicketID,
		"service_id", job.Args.ServiceID,
		"number", job.Args.Number,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)

	if job.Args.Event != string(domain.EventCall) || job.Args.CitizenPhone == "" || w.notifier == nil {
		return nil
	}
	if err := w.notifier.Notify(ctx, job.Args); err != nil {
		return fmt.Errorf("notifying ticket %s: %w", job.Args.TicketID, err)
	}
	return nil
}

// NoShowSweeper marks long-called tickets as no-shows.
type NoShowSweeper interface {
	SweepNoShows(ctx context.Context, grace time.Duration) (int, error)
}

// SweeperFunc adapts a function to NoShowSweeper.
type SweeperFunc func(ctx context.Context, grace time.Duration) (int, error)

func (f SweeperFunc) SweepNoShows(ctx context.Context, grace time.Duration) (int, error) {
	return f(ctx, grace)
}

// NoShowSweepArgs is the periodic sweep job. It carries no data.
type NoShowSweepArgs struct{}

func (NoShowSweepArgs) Kind() string { return "ticket.no_show_sweep" }

// NoShowSweepWorker runs one sweep per job.
type NoShowSweepWorker struct {
	river.WorkerDefaults[NoShowSweepArgs]
	sweeper NoShowSweeper
	grace   time.Duration
}

func (w *NoShowSweepWorker) Work(ctx context.Context, job *river.Job[NoShowSweepArgs]) error {
	marked, err := w.sweeper.SweepNoShows(ctx, w.grace)
	if err != nil {
		return fmt.Errorf("no-show sweep: %w", err)
	}
	slog.DebugContext(ctx, "no-show sweep finished", "marked", marked, "job_id", job.ID)
	return nil
}
