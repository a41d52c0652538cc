package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

const sweepBatchSize = 100

// SweepNoShows marks no_show every ticket that has been called for longer
// than grace. Each ticket goes through the regular transition, so a citizen
// who was started or cancelled in the meantime is skipped. It returns how
// many tickets were marked.
func (s *QueueService) SweepNoShows(ctx context.Context, grace time.Duration) (int, error) {
	if grace <= 0 {
		return 0, nil
	}

	stale, err := s.tickets.List(ctx, domain.ListFilter{
		Statuses:     []domain.Status{domain.StatusCalled},
		CalledBefore: s.now().Add(-grace),
		Limit:        sweepBatchSize,
	})
	if err != nil {
		return 0, fmt.Errorf("listing stale called tickets: %w", err)
	}

	marked := 0
	var errs []error
	for _, t := range stale {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		if _, err := s.MarkNoShow(ctx, t.ID); err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) {
				continue
			}
			errs = append(errs, fmt.Errorf("ticket %s: %w", t.ID, err))
			continue
		}
		marked++
	}

	if marked > 0 {
		s.logger.InfoContext(ctx, "no-show sweep", "marked", marked, "grace", grace.String())
	}
	return marked, errors.Join(errs...)
}
