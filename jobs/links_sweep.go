package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/tessera-hq/tessera/internal/assignment"
	jobmetrics "github.com/tessera-hq/tessera/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// NewLinksSweepHandler builds the handler that scans the event and
// stakeholder link sides for asymmetries. Violations are reported, not
// repaired.
func NewLinksSweepHandler(sweeper *assignment.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("links_sweep")
		violations, err := sweeper.Sweep(ctx)
		if err != nil {
			return tracker.End(err)
		}
		if len(violations) == 0 {
			logger.Info("link sweep clean", slog.String("job", "links_sweep"))
			return tracker.End(nil)
		}
		for _, v := range violations {
			logger.Warn("link asymmetry detected",
				slog.String("job", "links_sweep"),
				slog.String("event_id", v.EventID),
				slog.String("stakeholder_id", v.StakeholderID),
				slog.String("detail", v.Detail))
		}
		metrics.AddLinkViolations("asymmetry", len(violations))
		logger.Warn("link sweep finished with violations",
			slog.String("job", "links_sweep"),
			slog.Int("count", len(violations)))
		return tracker.End(nil)
	}
}
