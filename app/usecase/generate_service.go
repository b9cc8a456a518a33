package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"flowdiagram/internal/domain/entity"
	"flowdiagram/internal/domain/repository"
	"flowdiagram/internal/infrastructure/metrics"
	"flowdiagram/internal/infrastructure/validator"
)

// MinFlowChars is the minimum trimmed length of a workflow narrative.
const MinFlowChars = 10

var (
	ErrFlowTooShort = fmt.Errorf("flow description is required and must be at least %d characters", MinFlowChars)

	// ErrNotSequenceDiagram is the fixed retry error for a model result
	// whose diagram text does not start with the grammar marker. A
	// plausible-but-wrong shape is treated the same as an upstream failure.
	ErrNotSequenceDiagram = errors.New("model did not return a valid sequence diagram, please try again")
)

type GenerateUsecase interface {
	Generate(ctx context.Context, flow string) (entity.GenerationResult, error)
}

// DiagramArchive mirrors diagrams to a secondary store. Failures are
// logged, never surfaced to the generation caller.
type DiagramArchive interface {
	SaveDiagram(ctx context.Context, diagram *entity.Diagram) error
	Remove(ctx context.Context, id string) error
}

var _ GenerateUsecase = (*GenerateService)(nil)

type GenerateService struct {
	llm      repository.DiagramGenerator
	diagrams repository.DiagramRepository
	archive  DiagramArchive
	analyzer validator.Analyzer
	logger   *slog.Logger
}

func NewGenerateService(
	llm repository.DiagramGenerator,
	diagrams repository.DiagramRepository,
	archive DiagramArchive,
	analyzer validator.Analyzer,
	logger *slog.Logger,
) *GenerateService {
	return &GenerateService{
		llm:      llm,
		diagrams: diagrams,
		archive:  archive,
		analyzer: analyzer,
		logger:   logger,
	}
}

// Generate runs the full pipeline for one narrative:
// 1) validate input length
// 2) generate via LLM
// 3) check the grammar marker
// 4) record the diagram (best effort)
func (s *GenerateService) Generate(ctx context.Context, flow string) (entity.GenerationResult, error) {
	startTime := time.Now()

	flow = strings.TrimSpace(flow)
	if len(flow) < MinFlowChars {
		metrics.IncGeneration("invalid_input")
		return entity.GenerationResult{}, ErrFlowTooShort
	}

	result, err := s.llm.GenerateDiagram(ctx, flow, entity.SequencePrompt)
	if err != nil {
		metrics.IncGeneration("upstream_error")
		s.logger.Error("llm generation failed", "err", err)
		return entity.GenerationResult{}, err
	}

	if !s.analyzer.HasMarker(result.Mermaid) {
		metrics.IncGeneration("bad_diagram")
		s.logger.Warn("model produced non-sequence diagram", "prefix", prefixOf(result.Mermaid))
		return entity.GenerationResult{}, ErrNotSequenceDiagram
	}

	s.record(ctx, flow, result)

	metrics.IncGeneration("ok")
	metrics.ObserveGenerationDuration(time.Since(startTime))
	return result, nil
}

// record persists a successful generation. Storage problems must not
// fail a generation that already passed validation.
func (s *GenerateService) record(ctx context.Context, flow string, result entity.GenerationResult) {
	diagram := entity.NewDiagram(flow, result)
	diagram.Warnings = s.analyzer.Analyze(result.Mermaid).Warnings

	if s.diagrams != nil {
		if err := s.diagrams.Save(ctx, diagram); err != nil {
			s.logger.Error("save diagram failed", "diagram_id", diagram.ID, "err", err)
		}
	}
	if s.archive != nil {
		if err := s.archive.SaveDiagram(ctx, diagram); err != nil {
			s.logger.Error("archive diagram failed", "diagram_id", diagram.ID, "err", err)
		}
	}

	s.logger.Info("diagram generated", "diagram_id", diagram.ID, "warnings", len(diagram.Warnings))
}

func prefixOf(s string) string {
	if len(s) > 24 {
		return s[:24]
	}
	return s
}
