package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline operations and terminal outcomes recorded by Metrics.
const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"

	outcomeCommitted          = "committed"
	outcomeInvalid            = "invalid"
	outcomeRejectedText       = "rejected_text"
	outcomeRejectedImage      = "rejected_image"
	outcomeScannerUnavailable = "scanner_unavailable"
	outcomePromotionFailed    = "promotion_failed"
	outcomeNotFound           = "not_found"
	outcomeForbidden          = "forbidden"
	outcomeError              = "error"
)

// Metrics counts terminal states of the product pipeline. A nil *Metrics records nothing.
type Metrics struct {
	outcomes *prometheus.CounterVec
}

// NewMetrics registers the pipeline counter on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_pipeline_outcomes_total",
				Help: "Terminal states reached by product create, update and delete operations.",
			},
			[]string{"operation", "outcome"},
		),
	}
	if err := reg.Register(m.outcomes); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(op, outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	var blocked *BlockedError
	switch {
	case err == nil:
		return outcomeCommitted
	case errors.As(err, &blocked):
		if blocked.Verdict.TextSafe {
			return outcomeRejectedImage
		}
		return outcomeRejectedText
	case errors.Is(err, ErrValidation):
		return outcomeInvalid
	case errors.Is(err, ErrScannerUnavailable):
		return outcomeScannerUnavailable
	case errors.Is(err, ErrPromotionFailed):
		return outcomePromotionFailed
	case errors.Is(err, ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, ErrForbidden):
		return outcomeForbidden
	default:
		return outcomeError
	}
}
