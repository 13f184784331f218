package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/water-utility-etl/internal/domain"
	"github.com/couchcryptid/water-utility-etl/internal/observability"
)

// ReportNormalizer implements Normalizer with domain.Normalize, logging each
// diagnostic and recording row accounting metrics.
type ReportNormalizer struct {
	opts    domain.Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewNormalizer creates a ReportNormalizer for the given column options.
func NewNormalizer(opts domain.Options, logger *slog.Logger, metrics *observability.Metrics) *ReportNormalizer {
	return &ReportNormalizer{
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

func (n *ReportNormalizer) Normalize(ctx context.Context, raw domain.Table) (domain.Result, error) {
	res, err := domain.Normalize(raw, n.opts)
	if err != nil {
		return domain.Result{}, err
	}

	for _, d := range res.Diagnostics {
		n.logger.WarnContext(ctx, "normalization assumption applied",
			"kind", d.Kind,
			"column", d.Column,
			"count", d.Count,
			"detail", d.Message,
		)
		n.metrics.Diagnostics.WithLabelValues(string(d.Kind)).Inc()
	}

	n.metrics.RowsRead.Add(float64(res.Stats.RowsRead))
	n.metrics.RowsExcluded.WithLabelValues("granularity").Add(float64(res.Stats.RowsExcluded))
	n.metrics.RowsExcluded.WithLabelValues("no_period").Add(float64(res.Stats.RowsWithoutPeriod))
	n.metrics.PeriodsEmitted.Set(float64(res.Stats.Periods))

	return res, nil
}
