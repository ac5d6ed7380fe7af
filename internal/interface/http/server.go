package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"upsignal/internal/application/analysis"
	"upsignal/internal/application/prediction"
	domain "upsignal/internal/domain/analysis"
	"upsignal/internal/domain/marketdata"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  "ok",
	})
}

type scoreConfigOverride struct {
	Weights            map[domain.FactorName]float64 `json:"weights"`
	Threshold          float64                       `json:"threshold"`
	MinFactorsRequired *int                          `json:"min_factors_required"`
}

// scoreConfig 將請求覆寫與組態檔預設合併為評分設定；驗證失敗直接回傳錯誤。
func (s *Server) scoreConfig(override *scoreConfigOverride) (domain.ScoreConfig, error) {
	def := domain.DefaultScoreConfig()

	weights := def.Weights()
	threshold := def.Threshold()
	minFactors := def.MinFactorsRequired()

	if s.cfg.Analysis.Threshold > 0 {
		threshold = s.cfg.Analysis.Threshold
	}
	if s.cfg.Analysis.MinFactorsRequired > 0 {
		minFactors = s.cfg.Analysis.MinFactorsRequired
	}
	for name, w := range s.cfg.Analysis.Weights {
		weights[domain.FactorName(name)] = w
	}

	if override != nil {
		if len(override.Weights) > 0 {
			weights = override.Weights
		}
		if override.Threshold > 0 {
			threshold = override.Threshold
		}
		if override.MinFactorsRequired != nil {
			minFactors = *override.MinFactorsRequired
		}
	}

	return domain.NewScoreConfig(weights, threshold, minFactors)
}

func (s *Server) deriveConfig() analysis.DeriveConfig {
	cfg := analysis.DefaultDeriveConfig()
	if s.cfg.Analysis.VolumeSpikeRatio > 0 {
		cfg.VolumeSpikeRatio = s.cfg.Analysis.VolumeSpikeRatio
	}
	return cfg
}

type analysisRunRequest struct {
	Symbol        string `json:"symbol"`
	RawSeries     string `json:"raw_series"`
	TransactionID string `json:"transaction_id,omitempty"`
	scoreConfigOverride
}

func (s *Server) handleAnalysisRun(w http.ResponseWriter, r *http.Request) {
	var req analysisRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body")
		return
	}

	cfg, err := s.scoreConfig(&req.scoreConfigOverride)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_CONFIG", err.Error())
		return
	}

	out, err := s.analyzeUC.Execute(r.Context(), analysis.AnalyzeInput{
		Symbol:        req.Symbol,
		RawSeries:     req.RawSeries,
		TransactionID: req.TransactionID,
		Derive:        s.deriveConfig(),
		Config:        cfg,
	})
	if err != nil {
		s.writeAnalysisError(w, req.Symbol, err)
		return
	}

	s.log.Info().
		Str("symbol", out.Symbol).
		Int("days", out.Days).
		Int("persisted", out.Persisted).
		Float64("effective_threshold", out.Batch.EffectiveThreshold).
		Msg("analysis run done")

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    analysisResponse(out),
	})
}

type analysisRegenerateRequest struct {
	Symbol string `json:"symbol"`
	scoreConfigOverride
}

func (s *Server) handleAnalysisRegenerate(w http.ResponseWriter, r *http.Request) {
	var req analysisRegenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body")
		return
	}

	cfg, err := s.scoreConfig(&req.scoreConfigOverride)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_CONFIG", err.Error())
		return
	}

	out, err := s.analyzeUC.Regenerate(r.Context(), req.Symbol, s.deriveConfig(), cfg)
	if err != nil {
		s.writeAnalysisError(w, req.Symbol, err)
		return
	}

	s.log.Info().Str("symbol", out.Symbol).Int("days", out.Days).Msg("analysis regenerated from stored rows")
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    analysisResponse(out),
	})
}

func (s *Server) handleAnalysisSummary(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	onlyAbove := r.URL.Query().Get("only_above") == "true"

	cfg, err := s.scoreConfig(nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "BAD_CONFIG", err.Error())
		return
	}

	summary, batch, err := s.analyzeUC.SummarizeStored(r.Context(), symbol, cfg, onlyAbove)
	if err != nil {
		s.writeAnalysisError(w, symbol, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"symbol":               symbol,
			"summary":              summary,
			"configured_threshold": batch.ConfiguredThreshold,
			"effective_threshold":  batch.EffectiveThreshold,
			"threshold_adjusted":   batch.ThresholdAdjusted,
		},
	})
}

type predictRequest struct {
	Symbol  string                      `json:"symbol"`
	Factors map[domain.FactorName]*bool `json:"factors"`
	scoreConfigOverride
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body")
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "symbol is required")
		return
	}

	vector, err := domain.FactorVectorFromMap(req.Factors)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_FACTORS", err.Error())
		return
	}

	cfg, err := s.scoreConfig(&req.scoreConfigOverride)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_CONFIG", err.Error())
		return
	}

	p := prediction.Predict(req.Symbol, vector, cfg)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    p,
	})
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, symbol string, err error) {
	if errors.Is(err, marketdata.ErrNoData) {
		writeError(w, http.StatusUnprocessableEntity, "NO_DATA", "series contains no valid rows")
		return
	}
	s.log.Error().Err(err).Str("symbol", symbol).Msg("analysis failed")
	writeError(w, http.StatusBadRequest, "ANALYSIS_FAILED", err.Error())
}

type analysisRunResponse struct {
	Symbol              string                 `json:"symbol"`
	Days                int                    `json:"days"`
	Persisted           int                    `json:"persisted"`
	Warnings            []string               `json:"warnings"`
	ConfiguredThreshold float64                `json:"configured_threshold"`
	EffectiveThreshold  float64                `json:"effective_threshold"`
	ThresholdAdjusted   bool                   `json:"threshold_adjusted"`
	QualifyingDays      int                    `json:"qualifying_days"`
	Scores              []domain.DailyScore    `json:"scores"`
	Summary             analysis.Summary       `json:"summary"`
	Failures            []analysis.Failure     `json:"failures,omitempty"`
}

func analysisResponse(out analysis.AnalyzeOutput) analysisRunResponse {
	return analysisRunResponse{
		Symbol:              out.Symbol,
		Days:                out.Days,
		Persisted:           out.Persisted,
		Warnings:            out.Warnings,
		ConfiguredThreshold: out.Batch.ConfiguredThreshold,
		EffectiveThreshold:  out.Batch.EffectiveThreshold,
		ThresholdAdjusted:   out.Batch.ThresholdAdjusted,
		QualifyingDays:      out.Batch.QualifyingCount(),
		Scores:              out.Batch.Scores,
		Summary:             out.Summary,
		Failures:            out.Failures,
	}
}
