package usecase

import (
	"context"
	"time"

	"github.com/lunastra/payments/internal/metrics"
	webhookDomain "github.com/lunastra/payments/internal/webhook/domain"
)

// ingestorWithMetrics decorates UseCase with metrics instrumentation.
type ingestorWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewIngestorWithMetrics wraps a UseCase with metrics recording.
func NewIngestorWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &ingestorWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Ingest records metrics for event ingestion, labelled by event type.
func (i *ingestorWithMetrics) Ingest(ctx context.Context, event *webhookDomain.Event) error {
	start := time.Now()
	err := i.next.Ingest(ctx, event)

	status := "success"
	if err != nil {
		status = "error"
	}

	i.metrics.RecordOperation(ctx, "webhook", string(event.Type), status)
	i.metrics.RecordDuration(ctx, "webhook", string(event.Type), time.Since(start), status)

	return err
}
