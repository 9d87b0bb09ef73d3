// Package pipeline runs one upload through gate -> extract -> validate and
// resolves it to exactly one terminal outcome. Control flow is strictly
// linear and short-circuits at the first failing stage; the first terminal
// state wins and is never revisited.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/abhi542/MouldLensAI/constants"
	"github.com/abhi542/MouldLensAI/internal/common"
	"github.com/abhi542/MouldLensAI/internal/entity"
	"github.com/abhi542/MouldLensAI/internal/llm"
)

// ShapeGate is the local pre-filter stage.
type ShapeGate interface {
	Evaluate(imageData []byte) (*entity.ShapeMetrics, error)
}

// Validator narrows raw classifier output.
type Validator interface {
	Validate(raw llm.RawExtraction) (entity.CopeDragReading, error)
}

// RecordSink receives one OutcomeRecord per completed upload. Writes are
// best-effort and independent: the two sinks may diverge under partial
// failure, there is no two-phase commit. Accepted tradeoff, not a bug.
type RecordSink interface {
	Name() string
	Write(ctx context.Context, rec *entity.OutcomeRecord) error
}

// Processor coordinates the stages for one upload request. It holds no
// per-request state; concurrent uploads share only the injected
// collaborators.
type Processor struct {
	gate      ShapeGate
	extractor llm.VisionExtractor
	validator Validator
	sinks     []RecordSink
	logger    *slog.Logger
}

func NewProcessor(gate ShapeGate, extractor llm.VisionExtractor, validator Validator, sinks []RecordSink, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		gate:      gate,
		extractor: extractor,
		validator: validator,
		sinks:     sinks,
		logger:    logger,
	}
}

// Process resolves one upload to a terminal OutcomeRecord. It never
// returns an error: every failure is converted into a well-formed record
// with status=error and a human-readable message, so the upload endpoint
// can always answer 200 with a status field.
//
// Transition table:
//
//	gate not plausible                  -> empty
//	decode failure                      -> error
//	network/timeout failure             -> error
//	validator: model-reported empty     -> empty
//	validator: ValidationError          -> error
//	validator: non-empty reading        -> success
func (p *Processor) Process(ctx context.Context, imageData []byte, mimeType, cameraID string) *entity.OutcomeRecord {
	start := time.Now()

	metrics, err := p.gate.Evaluate(imageData)
	if err != nil {
		return p.finish(ctx, start, cameraID, constants.OutcomeError,
			"Extraction failed: "+err.Error(), entity.CopeDragReading{})
	}
	if !metrics.Plausible {
		p.logger.Info("pipeline.gate_negative",
			"camera_id", cameraID,
			"candidates", len(metrics.Candidates),
			"rejected", metrics.Rejected,
		)
		return p.finish(ctx, start, cameraID, constants.OutcomeEmpty,
			constants.MsgNothingOnBelt, entity.CopeDragReading{})
	}

	raw, err := p.extractor.Extract(ctx, imageData, mimeType)
	if err != nil {
		msg := "Extraction failed: " + err.Error()
		if errors.Is(err, common.ErrTimeout) {
			msg = "Extraction failed: classifier timed out"
		}
		return p.finish(ctx, start, cameraID, constants.OutcomeError, msg, entity.CopeDragReading{})
	}

	rdg, err := p.validator.Validate(raw)
	if err != nil {
		return p.finish(ctx, start, cameraID, constants.OutcomeError,
			"Extraction failed: "+err.Error(), entity.CopeDragReading{})
	}
	if rdg.IsEmpty() {
		// Both empty paths answer with the same message so the dashboard
		// counts one signal; which stage caught the absence is log-only.
		p.logger.Info("pipeline.model_empty",
			"camera_id", cameraID,
			"detail", constants.MsgModelSawNoText,
		)
		return p.finish(ctx, start, cameraID, constants.OutcomeEmpty,
			constants.MsgNothingOnBelt, entity.CopeDragReading{})
	}

	return p.finish(ctx, start, cameraID, constants.OutcomeSuccess,
		constants.MsgMouldDetected, rdg)
}

// finish stamps the record once, at terminal-state time, and dual-writes it.
func (p *Processor) finish(ctx context.Context, start time.Time, cameraID string,
	status constants.Outcome, message string, rdg entity.CopeDragReading) *entity.OutcomeRecord {

	elapsed := math.Round(float64(time.Since(start).Microseconds())/10) / 100
	rec := &entity.OutcomeRecord{
		ID:               uuid.New().String(),
		Status:           status,
		Message:          message,
		Cope:             rdg.Cope,
		Drag:             rdg.Drag,
		Timestamp:        time.Now().UTC(),
		ProcessingTimeMS: elapsed,
		CameraID:         cameraID,
		MouldDetected:    status != constants.OutcomeError,
	}

	level := slog.LevelInfo
	if status == constants.OutcomeError {
		level = slog.LevelError
	}
	p.logger.Log(ctx, level, "pipeline.outcome",
		"record_id", rec.ID,
		"camera_id", cameraID,
		"status", string(status),
		"outcome_message", message,
		"processing_time_ms", elapsed,
	)

	p.persist(ctx, rec)
	return rec
}

// persist writes the record to every sink. A failed sink is reported and
// skipped; it never changes the response or blocks the other sink.
func (p *Processor) persist(ctx context.Context, rec *entity.OutcomeRecord) {
	for _, sink := range p.sinks {
		if err := sink.Write(ctx, rec); err != nil {
			p.logger.Error("pipeline.sink_write_failed",
				"sink", sink.Name(),
				"record_id", rec.ID,
				"error", err,
			)
		}
	}
}
