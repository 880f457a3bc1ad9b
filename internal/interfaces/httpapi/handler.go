package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/doyaji/rift-rewind/internal/usecase"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	orchestrator *usecase.CollectionOrchestratorService
	matchQuery   *usecase.MatchQueryService
	masteryQuery *usecase.MasteryQueryService
	logger       *slog.Logger
	validator    *validator.Validate
}

func NewHandler(
	orchestrator *usecase.CollectionOrchestratorService,
	matchQuery *usecase.MatchQueryService,
	masteryQuery *usecase.MasteryQueryService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		orchestrator: orchestrator,
		matchQuery:   matchQuery,
		masteryQuery: masteryQuery,
		logger:       logger,
		validator:    validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) CollectSummonerData(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CollectSummonerData")
	defer span.End()

	var req collectRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.orchestrator.Collect(ctx, usecase.CollectInput{
		RiotID:     req.RiotID,
		Region:     req.Region,
		MatchCount: req.MatchCount,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "collect summoner data failed", "riot_id", req.RiotID, "region", req.Region, "error", err)
		if result.OverallStatus != "" {
			// Both collectors failed after a successful resolve; the
			// merged result still carries the per-collector errors.
			writeErrorWithData(ctx, w, err, result)
			return
		}
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) GetMatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchHistory")
	defer span.End()

	riotID := r.PathValue("riotID")
	result, err := h.matchQuery.GetMatchData(ctx, riotID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match history failed", "riot_id", riotID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) GetMasteryData(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMasteryData")
	defer span.End()

	riotID := r.PathValue("riotID")
	result, err := h.masteryQuery.GetMasteryData(ctx, riotID)
	if err != nil {
		h.logger.WarnContext(ctx, "get mastery data failed", "riot_id", riotID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) GetCollectionRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCollectionRuns")
	defer span.End()

	riotID := r.PathValue("riotID")
	runs, err := h.orchestrator.ListRuns(ctx, riotID)
	if err != nil {
		h.logger.WarnContext(ctx, "get collection runs failed", "riot_id", riotID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]collectionRunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, collectionRunResponse{
			ID:               run.ID,
			RiotID:           run.RiotID,
			Region:           run.Region,
			MatchCount:       run.MatchCount,
			OverallStatus:    string(run.OverallStatus),
			MatchStatus:      run.MatchStatus,
			MasteryStatus:    run.MasteryStatus,
			MatchesProcessed: run.MatchesProcessed,
			ErrorDetail:      run.ErrorDetail,
			StartedAt:        run.StartedAt,
			FinishedAt:       run.FinishedAt,
		})
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]any{"totalRuns": len(out), "runs": out})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type collectionRunResponse struct {
	ID               string    `json:"id"`
	RiotID           string    `json:"riotId"`
	Region           string    `json:"region"`
	MatchCount       int       `json:"matchCount"`
	OverallStatus    string    `json:"overallStatus"`
	MatchStatus      string    `json:"matchStatus"`
	MasteryStatus    string    `json:"masteryStatus"`
	MatchesProcessed int       `json:"matchesProcessed"`
	ErrorDetail      string    `json:"errorDetail,omitempty"`
	StartedAt        time.Time `json:"startedAt"`
	FinishedAt       time.Time `json:"finishedAt"`
}

type collectRequest struct {
	RiotID     string `json:"riotId" validate:"required"`
	Region     string `json:"region"`
	MatchCount int    `json:"matchCount" validate:"min=0,max=20"`
}
