package ai

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"drawparty-backend/internal/game"
	"drawparty-backend/internal/model"
	"drawparty-backend/internal/storage"
	"drawparty-backend/internal/store"
)

// Pipeline orchestrates the two-stage analyze -> regenerate flow for a
// finished round. Submission is fire-and-forget from the room's point of
// view; the pipeline records progress in the result store so clients can
// poll it. There are no retries: a failed stage marks the record FAILED and
// keeps whatever the earlier stage produced.
type Pipeline struct {
	analyzer  Analyzer
	generator Generator
	results   store.ResultStore
	objects   storage.ObjectStore

	stageTimeout time.Duration
}

// NewPipeline wires the stages. analyzer, generator and objects may each be
// nil when the corresponding backend is unconfigured; the pipeline degrades
// to FAILED records rather than refusing submissions.
func NewPipeline(analyzer Analyzer, generator Generator, results store.ResultStore, objects storage.ObjectStore, stageTimeout time.Duration) *Pipeline {
	return &Pipeline{
		analyzer:     analyzer,
		generator:    generator,
		results:      results,
		objects:      objects,
		stageTimeout: stageTimeout,
	}
}

// Submit accepts one finished round. It returns immediately; the stages run
// in their own goroutine.
func (p *Pipeline) Submit(roomID string, raster []byte, meta game.RoundMeta) {
	log.Printf("[Pipeline] Round submitted: room=%s, topic=%q, players=%d, raster=%d bytes",
		roomID, meta.Topic, meta.PlayerCount, len(raster))
	go p.process(roomID, raster, meta)
}

func (p *Pipeline) process(roomID string, raster []byte, meta game.RoundMeta) {
	ctx := context.Background()

	record := &model.RoomResult{
		RoomID:      roomID,
		Status:      model.ResultStatusPending,
		Topic:       meta.Topic,
		PlayerCount: meta.PlayerCount,
	}
	if err := p.results.Create(ctx, record); err != nil {
		log.Printf("[Pipeline] Failed to create result record for room %s: %v", roomID, err)
		return
	}

	// the original drawing is worth keeping even if every AI stage fails
	if p.objects != nil {
		if key, err := p.objects.PutDrawing(ctx, roomID, raster); err != nil {
			log.Printf("[Pipeline] Drawing upload failed for room %s: %v", roomID, err)
		} else {
			p.update(ctx, roomID, map[string]any{"drawing_key": key})
		}
	}

	// Stage 1: vision analysis
	if p.analyzer == nil {
		p.fail(ctx, roomID, "analysis backend not configured")
		return
	}
	stageCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	analysis, err := p.analyzer.Analyze(stageCtx, raster, meta.Topic)
	cancel()
	if err != nil {
		log.Printf("[Pipeline] Analysis failed for room %s: %v", roomID, err)
		p.fail(ctx, roomID, "analysis failed: "+err.Error())
		return
	}

	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		log.Printf("[Pipeline] Failed to encode analysis for room %s: %v", roomID, err)
		p.fail(ctx, roomID, "analysis encoding failed")
		return
	}
	p.update(ctx, roomID, map[string]any{
		"analysis": string(analysisJSON),
		"status":   model.ResultStatusAnalyzing,
	})
	log.Printf("[Pipeline] Analysis complete for room %s: subject=%q", roomID, analysis.Subject)

	// Stage 2: image regeneration. A failure here must not touch the
	// persisted analysis.
	if p.generator == nil {
		p.fail(ctx, roomID, "image backend not configured")
		return
	}
	stageCtx, cancel = context.WithTimeout(ctx, p.stageTimeout)
	generated, err := p.generator.Generate(stageCtx, raster, analysis.RegenerationPrompt)
	cancel()
	if err != nil {
		log.Printf("[Pipeline] Generation failed for room %s: %v", roomID, err)
		p.fail(ctx, roomID, "generation failed: "+err.Error())
		return
	}

	fields := map[string]any{"status": model.ResultStatusCompleted}
	if p.objects != nil {
		if key, err := p.objects.PutGenerated(ctx, roomID, generated); err != nil {
			log.Printf("[Pipeline] Generated image upload failed for room %s: %v", roomID, err)
		} else {
			fields["generated_key"] = key
		}
	}
	p.update(ctx, roomID, fields)
	log.Printf("[Pipeline] Round complete for room %s", roomID)
}

func (p *Pipeline) fail(ctx context.Context, roomID, reason string) {
	p.update(ctx, roomID, map[string]any{
		"status": model.ResultStatusFailed,
		"error":  reason,
	})
}

func (p *Pipeline) update(ctx context.Context, roomID string, fields map[string]any) {
	if err := p.results.Update(ctx, roomID, fields); err != nil {
		log.Printf("[Pipeline] Failed to update result for room %s: %v", roomID, err)
	}
}
