package usecase

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/totegamma/cardfeed/internal/domain"
)

var tracer = otel.Tracer("ingest")

// IngestStats are cumulative counters since process start.
type IngestStats struct {
	Processed  int64 `json:"processed"`
	Applied    int64 `json:"applied"`
	Skipped    int64 `json:"skipped"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

// IngestUsecase is the single entry point for a dequeued event.
// It runs the duplicate check, routes the event and records the ledger.
type IngestUsecase struct {
	dedup   *DeduplicationService
	router  *Router
	ledger  LedgerRepository
	signals SignalPublisher
	logger  *zap.Logger

	processed  atomic.Int64
	applied    atomic.Int64
	skipped    atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

func NewIngestUsecase(
	dedup *DeduplicationService,
	router *Router,
	ledger LedgerRepository,
	signals SignalPublisher,
	logger *zap.Logger,
) *IngestUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestUsecase{
		dedup:   dedup,
		router:  router,
		ledger:  ledger,
		signals: signals,
		logger:  logger,
	}
}

// Process applies one event. Skipped projections return nil; parse,
// unknown kind, validation, duplicate check and store failures are returned.
func (uc *IngestUsecase) Process(ctx context.Context, event domain.FirehoseEvent) error {
	ctx, span := tracer.Start(ctx, "Ingest.Usecase.Process", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	uri := event.URI.String()
	span.SetAttributes(
		attribute.String("uri", uri),
		attribute.String("op", string(event.Type)),
		attribute.Int64("seq", event.Seq),
	)
	uc.processed.Add(1)

	log := uc.logger.With(
		zap.String("uri", uri),
		zap.String("op", string(event.Type)),
		zap.Int64("seq", event.Seq),
	)

	done, err := uc.dedup.HasBeenApplied(ctx, event.URI, event.CID, event.Type)
	if err != nil {
		uc.failed.Add(1)
		span.RecordError(err)
		return err
	}
	if done {
		uc.duplicates.Add(1)
		log.Debug("event already applied")
		return nil
	}

	outcome, err := uc.router.Route(ctx, event)
	if err != nil {
		uc.failed.Add(1)
		span.RecordError(err)
		return err
	}

	kind, _ := uc.router.KindOf(event.URI)
	log = log.With(zap.String("kind", string(kind)))

	if outcome.Skipped {
		uc.skipped.Add(1)
		log.Warn("event skipped", zap.String("reason", outcome.Reason))
		return nil
	}

	switch {
	case event.Type.HasPayload() && event.CID != nil:
		if err := uc.ledger.Record(ctx, uri, *event.CID); err != nil {
			uc.failed.Add(1)
			err = domain.Infra("record applied write", err)
			span.RecordError(err)
			return err
		}
	case event.Type == domain.EventTypeDelete:
		if _, err := uc.ledger.DeleteByURI(ctx, uri); err != nil {
			uc.failed.Add(1)
			err = domain.Infra("delete applied writes", err)
			span.RecordError(err)
			return err
		}
	}

	uc.applied.Add(1)
	log.Debug("event applied")

	uc.signal(ctx, log, kind, event)
	return nil
}

func (uc *IngestUsecase) signal(ctx context.Context, log *zap.Logger, kind domain.ResourceKind, event domain.FirehoseEvent) {
	if uc.signals == nil {
		return
	}
	signal := domain.Signal{
		Kind: kind,
		Type: event.Type,
		URI:  event.URI.String(),
		Seq:  event.Seq,
	}
	if err := uc.signals.Publish(ctx, SignalChannel(kind), signal); err != nil {
		log.Warn("failed to publish signal", zap.Error(err))
	}
}

func (uc *IngestUsecase) Stats() IngestStats {
	return IngestStats{
		Processed:  uc.processed.Load(),
		Applied:    uc.applied.Load(),
		Skipped:    uc.skipped.Load(),
		Duplicates: uc.duplicates.Load(),
		Failed:     uc.failed.Load(),
	}
}

func SignalChannel(kind domain.ResourceKind) string {
	return fmt.Sprintf("cardfeed:%s", kind)
}
