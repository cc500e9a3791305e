package server

import (
	"context"
	"net/http"

	"careermatch/internal/engine"
	"careermatch/internal/errors"
	"careermatch/internal/observability"
	"careermatch/internal/report"
	"careermatch/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "careermatch.api"

// createRecommendHandler ranks the catalog for a profile and answers with a
// report.
func (s *Server) createRecommendHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.recommend")
		defer span.End()

		var req RecommendRequest
		if err := parseJSONRequest(r, &req); err != nil {
			failSpan(span, err, "validation")
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		topN, err := limitOrDefault("topN", req.TopN, s.AppConfig.Engine.TopCareers)
		if err != nil {
			failSpan(span, err, "validation")
			s.writeAppError(w, err)
			return
		}
		topGaps, err := limitOrDefault("topGaps", req.TopGaps, s.AppConfig.Engine.TopGaps)
		if err != nil {
			failSpan(span, err, "validation")
			s.writeAppError(w, err)
			return
		}

		profile, err := s.resolveProfile(ctx, req.ProfileRef)
		if err != nil {
			failSpan(span, err, string(errors.TypeOf(err)))
			s.writeAppError(w, err)
			return
		}

		ranking := s.ranker.Recommend(profile, topN)
		scores := make([]float64, len(ranking))
		for i, result := range ranking {
			scores[i] = result.Score
		}
		om.GetMetrics().RecordRecommendation(ctx, "http", scores...)

		span.SetAttributes(
			attribute.String("profile", profile.Name),
			attribute.Int("request.top_n", topN),
			attribute.Int("response.recommendations", len(ranking)),
		)
		s.writeJSON(w, http.StatusOK, report.Build(profile, ranking, topGaps))
	}
}

// createGapsHandler lists the improvement areas of a profile for one career.
func (s *Server) createGapsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.gaps")
		defer span.End()

		var req GapsRequest
		if err := parseJSONRequest(r, &req); err != nil {
			failSpan(span, err, "validation")
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		topN, err := limitOrDefault("topN", req.TopN, s.AppConfig.Engine.TopGaps)
		if err != nil {
			failSpan(span, err, "validation")
			s.writeAppError(w, err)
			return
		}

		profile, career, err := s.resolvePair(ctx, req.ProfileRef, req.Career)
		if err != nil {
			failSpan(span, err, string(errors.TypeOf(err)))
			s.writeAppError(w, err)
			return
		}

		gapReport := report.BuildGapReport(profile, career, topN)
		om.GetMetrics().RecordGapAnalysis(ctx, "http", career.Title)

		span.SetAttributes(
			attribute.String("profile", profile.Name),
			attribute.String("career", career.Title),
			attribute.Int("response.gaps", len(gapReport.Gaps)),
		)
		s.writeJSON(w, http.StatusOK, gapReport)
	}
}

// createAdviseHandler asks the advisor for a learning plan. It answers 503
// when no advisor is configured.
func (s *Server) createAdviseHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.advise")
		defer span.End()

		if s.Advisor == nil {
			writeErrorResponse(w, "Advisor not configured", "set ai.apiKey to enable learning plans", http.StatusServiceUnavailable)
			return
		}

		var req AdviseRequest
		if err := parseJSONRequest(r, &req); err != nil {
			failSpan(span, err, "validation")
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		profile, career, err := s.resolvePair(ctx, req.ProfileRef, req.Career)
		if err != nil {
			failSpan(span, err, string(errors.TypeOf(err)))
			s.writeAppError(w, err)
			return
		}

		input := types.AdviceInput{
			Profile: profile,
			Career:  career,
			Score:   engine.Compatibility(profile, career),
			Gaps:    engine.ImprovementAreas(profile, career, s.AppConfig.Engine.TopGaps),
		}

		var advice types.Advice
		err = om.GetMetrics().TrackAdvisorOperation(ctx, "advise", func(ctx context.Context) *observability.AIOperationResult {
			result, usage, adviseErr := s.Advisor.Advise(ctx, input)
			advice = result
			return &observability.AIOperationResult{
				Error:      adviseErr,
				TokenUsage: (*observability.TokenUsage)(usage),
			}
		})
		if err != nil {
			failSpan(span, err, "ai_processing")
			s.writeAppError(w, err)
			return
		}

		span.SetAttributes(
			attribute.String("profile", profile.Name),
			attribute.String("career", career.Title),
			attribute.Int("response.steps", len(advice.Steps)),
		)
		s.writeJSON(w, http.StatusOK, advice)
	}
}

// resolvePair resolves the profile reference and the career title.
func (s *Server) resolvePair(ctx context.Context, ref ProfileRef, title string) (types.Profile, types.Career, error) {
	career, err := s.Catalog.Find(title)
	if err != nil {
		return types.Profile{}, types.Career{}, err
	}
	profile, err := s.resolveProfile(ctx, ref)
	if err != nil {
		return types.Profile{}, types.Career{}, err
	}
	return profile, career, nil
}

func failSpan(span trace.Span, err error, kind string) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", kind))
}
