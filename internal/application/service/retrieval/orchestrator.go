package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mnemo-ai/mnemo/internal/config"
	"github.com/mnemo-ai/mnemo/internal/logger"
	"github.com/mnemo-ai/mnemo/internal/types"
	"github.com/mnemo-ai/mnemo/internal/types/interfaces"
)

// Stage names as they appear in ContextPayload.DegradedStages.
const (
	stageSemantic  = "semantic_search"
	stageTraversal = "graph_traversal"
	stageHydration = "hydration"
)

// Orchestrator sequences Stage 1 -> 2 -> 3 under an overall turn deadline,
// with an independent timeout per stage. Each stage call returns before the
// next begins, so no stage holds its store connections across a boundary.
type Orchestrator struct {
	semantic  *SemanticSearchClient
	traversal *GraphTraversalEngine
	hydration *HydrationService
	cfg       config.RetrievalConfig
	tracer    trace.Tracer
}

// NewOrchestrator creates the pipeline front door.
func NewOrchestrator(semantic *SemanticSearchClient, traversal *GraphTraversalEngine,
	hydration *HydrationService, cfg *config.Config,
) interfaces.RetrievalService {
	return &Orchestrator{
		semantic:  semantic,
		traversal: traversal,
		hydration: hydration,
		cfg:       cfg.Retrieval,
		tracer:    otel.Tracer("retrieval"),
	}
}

// Retrieve runs the pipeline. Store failures degrade stages and never surface
// as an error; the only errors are caller misuse. On deadline exhaustion the
// best-effort partial payload assembled so far is returned.
func (o *Orchestrator) Retrieve(ctx context.Context, keyPhrases []string, ownerID string) (*types.ContextPayload, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("retrieve: owner ID is required")
	}
	if len(keyPhrases) == 0 {
		return nil, fmt.Errorf("retrieve: at least one key phrase is required")
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.OverallDeadline)
	defer cancel()

	ctx, span := o.tracer.Start(ctx, "retrieval.pipeline", trace.WithAttributes(
		attribute.Int("retrieval.key_phrases", len(keyPhrases))))
	defer span.End()

	started := time.Now()
	log := logger.GetLogger(ctx)
	var degraded []string

	// Stage 1: vector similarity.
	stage1Ctx, cancel1 := context.WithTimeout(ctx, o.cfg.Stage1Timeout)
	stage1Ctx, stage1Span := o.tracer.Start(stage1Ctx, stageSemantic)
	candidates, stage1Degraded := o.semantic.Search(stage1Ctx, keyPhrases, ownerID, nil)
	stage1Span.SetAttributes(
		attribute.Int("retrieval.candidates", len(candidates)),
		attribute.Bool("retrieval.degraded", stage1Degraded))
	stage1Span.End()
	cancel1()
	if stage1Degraded {
		degraded = append(degraded, stageSemantic)
	}
	if len(candidates) == 0 {
		// Nothing to traverse or hydrate. Not an error: the assistant simply
		// answers without memory augmentation.
		log.Infof("[Retrieval] No candidates for %d phrases, returning empty payload (%.0fms)",
			len(keyPhrases), time.Since(started).Seconds()*1000)
		payload := types.EmptyContextPayload()
		payload.DegradedStages = degraded
		return payload, nil
	}

	// Stage 2: graph expansion. Falls back to the seed set on failure.
	stage2Ctx, cancel2 := context.WithTimeout(ctx, o.cfg.Stage2Timeout)
	stage2Ctx, stage2Span := o.tracer.Start(stage2Ctx, stageTraversal)
	results, stage2Degraded := o.traversal.Traverse(stage2Ctx, candidates, ownerID, nil)
	stage2Span.SetAttributes(
		attribute.Int("retrieval.results", len(results)),
		attribute.Bool("retrieval.degraded", stage2Degraded))
	stage2Span.End()
	cancel2()
	if stage2Degraded {
		degraded = append(degraded, stageTraversal)
	}

	// Stage 3: hydration and ranking.
	stage3Ctx, cancel3 := context.WithTimeout(ctx, o.cfg.Stage3Timeout)
	stage3Ctx, stage3Span := o.tracer.Start(stage3Ctx, stageHydration)
	payload, stage3Degraded := o.hydration.Hydrate(stage3Ctx, results, ownerID)
	stage3Span.SetAttributes(
		attribute.Int("retrieval.entities", len(payload.Entities)),
		attribute.Bool("retrieval.degraded", stage3Degraded))
	stage3Span.End()
	cancel3()
	if stage3Degraded {
		degraded = append(degraded, stageHydration)
	}

	payload.DegradedStages = degraded
	log.Infof("[Retrieval] %d phrases -> %d candidates -> %d traversed -> %d hydrated in %.0fms (degraded=%v)",
		len(keyPhrases), len(candidates), len(results), len(payload.Entities),
		time.Since(started).Seconds()*1000, degraded)
	return payload, nil
}
