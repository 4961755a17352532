package pipeline

import (
	"log/slog"

	"github.com/KaramelBytes/dqcheck-cli/internal/quality"
)

// LoggingObserver logs every event with structured fields.
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver logs through logger, or slog.Default() when nil.
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

// OnEvent logs failures at error level and skipped metadata as a warning.
func (lo *LoggingObserver) OnEvent(event Event) {
	attrs := []any{
		"event", event.Type,
		"run_id", event.RunID,
		"dataset", event.Dataset,
	}
	switch d := event.Data.(type) {
	case Shape:
		attrs = append(attrs, "rows", d.Rows, "cols", d.Cols)
	case quality.Metrics:
		attrs = append(attrs, "overall_score", d.OverallScore, "completeness", d.Completeness,
			"uniqueness", d.Uniqueness, "consistency", d.Consistency)
	case Summary:
		attrs = append(attrs, "overall_score", d.Metrics.OverallScore, "issues", d.Issues,
			"recommendations", d.Recommendations, "duration", d.Duration)
	case error:
		if event.Type == EventCatalogSkipped {
			lo.logger.Warn("pipeline", append(attrs, "error", d)...)
			return
		}
		lo.logger.Error("pipeline", append(attrs, "error", d)...)
		return
	case nil:
	default:
		attrs = append(attrs, "data", d)
	}
	lo.logger.Info("pipeline", attrs...)
}
