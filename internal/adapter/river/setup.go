package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver"
	"github.com/riverqueue/river/rivermigrate"
)

// Config wires the workers. The sweep is registered only when Sweeper is
// set and Grace is positive.
type Config struct {
	Notifier      Notifier
	Sweeper       NoShowSweeper
	Grace         time.Duration
	SweepInterval time.Duration
}

// Setup creates a River client with the ticket workers registered and runs
// River's internal migrations. The caller must call client.Start() to begin
// processing jobs and client.Stop() for graceful shutdown.
func Setup(ctx context.Context, driver riverdriver.Driver[*sql.Tx], cfg Config) (*Client, error) {
	// River's own tables (river_job, river_leader, ...) live beside the
	// app's goose migrations but are versioned separately.
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("running river migrations: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &EventWorker{notifier: cfg.Notifier})

	var periodic []*river.PeriodicJob
	if cfg.Sweeper != nil && cfg.Grace > 0 {
		river.AddWorker(workers, &NoShowSweepWorker{sweeper: cfg.Sweeper, grace: cfg.Grace})

		interval := cfg.SweepInterval
		if interval <= 0 {
			interval = time.Minute
		}
		periodic = append(periodic, river.NewPeriodicJob(
			river.PeriodicInterval(interval),
			func() (river.JobArgs, *river.InsertOpts) {
				return NoShowSweepArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		))
	}

	client, err := river.NewClient(driver, &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
		},
		Workers:      workers,
		PeriodicJobs: periodic,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}
