// Package pipeline orchestrates one segment analysis end to end:
// perception, normalization, scoring, decision, optional ad generation, and
// persistence. The orchestrator is the only component aware of the others
// and the sole writer of pipeline records.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"adpulse/internal/creative"
	"adpulse/internal/decision"
	"adpulse/internal/metrics"
	"adpulse/internal/model"
	"adpulse/internal/normalize"
	"adpulse/internal/perceive"
	"adpulse/internal/score"
	"adpulse/internal/store"
	"adpulse/internal/worker"
)

// SegmentRequest identifies one time-bounded segment to analyze. MediaRef is
// an already-resolved media reference; session state never reaches the core.
type SegmentRequest struct {
	MediaRef     string
	StartSec     int
	EndSec       int
	BusinessName string
	BusinessType string
}

// Validate checks the request's time window.
func (r SegmentRequest) Validate() error {
	if r.MediaRef == "" {
		return fmt.Errorf("media reference is required")
	}
	if r.StartSec < 0 || r.EndSec <= r.StartSec {
		return fmt.Errorf("invalid segment window [%d,%d)", r.StartSec, r.EndSec)
	}
	return nil
}

// OutcomeKind tags the three terminal shapes of a segment analysis.
type OutcomeKind string

const (
	// OutcomeDiscarded: perception failed, output was unparsable, or
	// confidence was below threshold. The record is still persisted.
	OutcomeDiscarded OutcomeKind = "discarded"

	// OutcomeScored: scored and decided, no ad (ignore decision, disabled
	// creative provider, or creative failure).
	OutcomeScored OutcomeKind = "scored"

	// OutcomeScoredWithAd: scored, decided, and ad content attached.
	OutcomeScoredWithAd OutcomeKind = "scored_with_ad"
)

// Outcome is the tagged result of one segment analysis. Ad is non-nil exactly
// when Kind is OutcomeScoredWithAd.
type Outcome struct {
	Kind        OutcomeKind
	Record      model.PipelineRecord
	Ad          *model.AdContent
	Explanation string
}

// Pipeline sequences perception, scoring, decision, ad generation, and
// persistence for individual segments.
type Pipeline struct {
	perceiver  perceive.Provider
	normalizer *normalize.Normalizer
	scorer     *score.Scorer
	decider    *decision.Engine
	creative   creative.Provider // nil when ad generation is disabled
	store      store.Store
	limiter    *worker.Limiter
}

// New builds a pipeline from configuration, constructing both collaborator
// providers. The store is injected so callers control its lifecycle.
func New(cfg *model.Config, st store.Store) (*Pipeline, error) {
	perceiver, err := perceive.NewProvider(perceive.Config{
		Provider: cfg.Perception.Provider,
		Model:    cfg.Perception.Model,
		APIKey:   cfg.Perception.APIKey,
		BaseURL:  cfg.Perception.BaseURL,
		Timeout:  cfg.Perception.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("perception provider: %w", err)
	}
	if perceiver == nil {
		return nil, fmt.Errorf("perception provider is required")
	}

	creativeProvider, err := creative.NewProvider(creative.Config{
		Provider:  cfg.Creative.Provider,
		Model:     cfg.Creative.Model,
		APIKey:    cfg.Creative.APIKey,
		BaseURL:   cfg.Creative.BaseURL,
		Timeout:   cfg.Creative.Timeout,
		MaxTokens: cfg.Creative.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("creative provider: %w", err)
	}

	var limiter *worker.Limiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize)
	}

	return NewWithCollaborators(cfg, perceiver, creativeProvider, st, limiter), nil
}

// NewWithCollaborators wires a pipeline with explicit collaborators. Used by
// New and by tests that substitute fakes.
func NewWithCollaborators(cfg *model.Config, perceiver perceive.Provider, creativeProvider creative.Provider, st store.Store, limiter *worker.Limiter) *Pipeline {
	return &Pipeline{
		perceiver:  perceiver,
		normalizer: normalize.New(cfg.Perception.ConfidenceThreshold),
		scorer:     score.NewScorer(cfg.Scoring),
		decider:    decision.NewEngine(cfg.Decision),
		creative:   creativeProvider,
		store:      st,
		limiter:    limiter,
	}
}

// ProcessSegment runs the full pipeline for one segment, strictly sequential.
//
// Perception failures, unparsable output, and low-confidence results all end
// as a persisted DISCARDED record, never as an error. A creative failure is
// absorbed into the explanation text. The only hard failure is persistence:
// if the audit record cannot be written, the whole request fails.
//
// Two calls for the same window produce two independent records; whether to
// re-analyze a segment is the caller's decision.
func (p *Pipeline) ProcessSegment(ctx context.Context, req SegmentRequest) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Perception, exactly once. Retry, if any, is the provider's concern.
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, "perception"); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	perceived := p.perceiver.Analyze(ctx, req.toPerceive())
	metrics.ObservePerceptionLatency(perceived.LatencyMS)

	if !perceived.Success {
		reason := perceived.Error
		if reason == "" {
			reason = "perception provider returned no result"
		}
		return p.discard(ctx, req, perceived, nil, model.DiscardPerception, reason)
	}

	// Normalization. Parse failures and low confidence both discard, but the
	// audit trail keeps them distinguishable.
	event, err := p.normalizer.Normalize(perceived.RawText)
	if err != nil {
		switch e := err.(type) {
		case *normalize.LowConfidenceError:
			return p.discard(ctx, req, perceived, &e.Event, model.DiscardLowConfidence, e.Error())
		default:
			return p.discard(ctx, req, perceived, nil, model.DiscardNormalization, err.Error())
		}
	}

	// Scoring and decision are pure and never fail.
	scored := p.scorer.Score(*event)
	decided := p.decider.Decide(scored.Score, event.EventType)

	rec := model.PipelineRecord{
		ID:                  uuid.NewString(),
		StartSec:            req.StartSec,
		EndSec:              req.EndSec,
		EventType:           event.EventType,
		Intensity:           event.Intensity,
		Confidence:          event.Confidence,
		CrowdReaction:       event.CrowdReaction,
		Summary:             event.Summary,
		Score:               scored.Score,
		ScoreReasons:        scored.Reasons,
		GenerateAd:          decided.GenerateAd,
		Urgency:             decided.Urgency,
		DecisionReason:      decided.Reason,
		RawResponse:         perceived.RawText,
		PerceptionLatencyMS: perceived.LatencyMS,
	}

	// Creative call, at most once, and only after the decision: the provider
	// must observe the urgency tier.
	var (
		ad          *model.AdContent
		creativeErr string
	)
	if decided.GenerateAd {
		switch {
		case p.creative == nil:
			creativeErr = "creative provider disabled"
		default:
			if p.limiter != nil {
				if err := p.limiter.Wait(ctx, "creative"); err != nil {
					return nil, fmt.Errorf("rate limit: %w", err)
				}
			}
			generated := p.creative.Generate(ctx, creative.Request{
				EventType:    event.EventType,
				Urgency:      decided.Urgency,
				Summary:      event.Summary,
				BusinessName: req.BusinessName,
				BusinessType: req.BusinessType,
			})
			metrics.ObserveCreativeLatency(generated.LatencyMS)
			if generated.Success {
				ad = &model.AdContent{
					ID:                uuid.NewString(),
					RecordID:          rec.ID,
					AdCopy:            generated.AdCopy,
					PromoSuggestion:   generated.PromoSuggestion,
					Hashtags:          generated.Hashtags,
					Urgency:           decided.Urgency,
					BusinessName:      req.BusinessName,
					BusinessType:      req.BusinessType,
					CreativeLatencyMS: generated.LatencyMS,
				}
			} else {
				creativeErr = generated.Error
				metrics.IncCreativeFailures()
			}
		}
	}

	// Persist before returning. A storage error here is the one failure that
	// propagates: without the record the audit trail is broken.
	if err := p.store.CreateRecord(ctx, &rec); err != nil {
		return nil, fmt.Errorf("persist record: %w", err)
	}
	if ad != nil {
		if err := p.store.AttachAd(ctx, ad); err != nil {
			return nil, fmt.Errorf("attach ad: %w", err)
		}
	}
	metrics.IncSegmentsProcessed()
	if ad != nil {
		metrics.IncAdsGenerated()
	}

	explanation := p.explain(decided.Reason, scored.Reasons, creativeErr)

	kind := OutcomeScored
	if ad != nil {
		kind = OutcomeScoredWithAd
	}
	return &Outcome{
		Kind:        kind,
		Record:      rec,
		Ad:          ad,
		Explanation: explanation,
	}, nil
}

// discard persists a terminal DISCARDED record and returns it as an outcome.
// When the normalizer produced an event shape (low-confidence case), its
// fields are kept on the record for the audit trail.
func (p *Pipeline) discard(ctx context.Context, req SegmentRequest, perceived perceive.Result, event *model.CanonicalEvent, kind model.DiscardKind, reason string) (*Outcome, error) {
	rec := model.PipelineRecord{
		ID:                  uuid.NewString(),
		StartSec:            req.StartSec,
		EndSec:              req.EndSec,
		EventType:           model.EventUnknown,
		Intensity:           model.IntensityLow,
		Score:               0,
		GenerateAd:          false,
		Urgency:             model.UrgencyIgnore,
		DecisionReason:      reason,
		DiscardKind:         kind,
		RawResponse:         perceived.RawText,
		PerceptionLatencyMS: perceived.LatencyMS,
	}
	if event != nil {
		rec.EventType = event.EventType
		rec.Intensity = event.Intensity
		rec.Confidence = event.Confidence
		rec.CrowdReaction = event.CrowdReaction
		rec.Summary = event.Summary
	}

	if err := p.store.CreateRecord(ctx, &rec); err != nil {
		return nil, fmt.Errorf("persist record: %w", err)
	}
	metrics.IncSegmentsProcessed()
	metrics.IncSegmentsDiscarded(string(kind))

	return &Outcome{
		Kind:        OutcomeDiscarded,
		Record:      rec,
		Explanation: fmt.Sprintf("Segment discarded: %s", reason),
	}, nil
}

// explain builds the combined caller-facing explanation string.
func (p *Pipeline) explain(decisionReason string, scoreReasons []string, creativeErr string) string {
	parts := []string{decisionReason}
	if len(scoreReasons) > 0 {
		parts = append(parts, "Score breakdown: "+strings.Join(scoreReasons, "; "))
	}
	if creativeErr != "" {
		parts = append(parts, "Ad generation failed: "+creativeErr)
	}
	return strings.Join(parts, " | ")
}

func (r SegmentRequest) toPerceive() perceive.Request {
	return perceive.Request{
		MediaRef: r.MediaRef,
		StartSec: r.StartSec,
		EndSec:   r.EndSec,
	}
}
