package analysis

import (
	"math"

	domain "upsignal/internal/domain/analysis"
)

// ScoredDay pairs an indicator row with its factor vector for scoring.
type ScoredDay struct {
	Row     domain.IndicatorRow
	Factors domain.FactorVector
}

// BatchResult 為一次批次評分的結果，回報實際採用的門檻。
type BatchResult struct {
	Scores              []domain.DailyScore
	ConfiguredThreshold float64
	EffectiveThreshold  float64
	ThresholdAdjusted   bool
}

// QualifyingCount 回傳符合門檻的天數。
func (r BatchResult) QualifyingCount() int {
	n := 0
	for _, s := range r.Scores {
		if s.AboveThreshold {
			n++
		}
	}
	return n
}

// ScoreDays 對一批 (指標列, 因子向量) 計算單日分數與門檻判定。
// 分數為啟用因子的權重總和，false 與未知因子不貢獻、不做再正規化。
//
// 調適門檻以「批次」為單位套用一次：
//   - 若無任何一天符合門檻且 maxScore > 0，改用 max(0.75×maxScore, 0.15)；
//   - 否則若符合天數不足 5% 且 maxScore > 0.2，改用 max(0.60×maxScore, 0.20)；
//
// 調整後逐日重算 AboveThreshold。空輸入回傳空結果，不產生算術錯誤。
func ScoreDays(days []ScoredDay, cfg domain.ScoreConfig) BatchResult {
	result := BatchResult{
		ConfiguredThreshold: cfg.Threshold(),
		EffectiveThreshold:  cfg.Threshold(),
	}
	if len(days) == 0 {
		return result
	}

	scores := make([]domain.DailyScore, len(days))
	maxScore := 0.0
	for i, d := range days {
		scores[i] = scoreOne(d, cfg, cfg.Threshold())
		if scores[i].Score > maxScore {
			maxScore = scores[i].Score
		}
	}
	result.Scores = scores

	qualifying := result.QualifyingCount()
	switch {
	case qualifying == 0 && maxScore > 0:
		result.EffectiveThreshold = math.Max(0.75*maxScore, 0.15)
		result.ThresholdAdjusted = true
	case float64(qualifying) < 0.05*float64(len(scores)) && maxScore > 0.2:
		result.EffectiveThreshold = math.Max(0.60*maxScore, 0.20)
		result.ThresholdAdjusted = true
	}

	if result.ThresholdAdjusted {
		for i := range scores {
			scores[i].AboveThreshold = scores[i].Score >= result.EffectiveThreshold &&
				scores[i].FactorCount >= cfg.MinFactorsRequired()
		}
	}
	return result
}

func scoreOne(day ScoredDay, cfg domain.ScoreConfig, threshold float64) domain.DailyScore {
	breakdown := make(map[domain.FactorName]domain.FactorContribution, 10)
	score := 0.0
	for _, f := range domain.AllFactors() {
		weight := cfg.Weight(f)
		active := day.Factors.Active(f)
		contribution := 0.0
		if active {
			contribution = weight
			score += weight
		}
		breakdown[f] = domain.FactorContribution{
			Active:       active,
			Weight:       weight,
			Contribution: contribution,
		}
	}

	count := day.Factors.ActiveCount()
	return domain.DailyScore{
		Date:           day.Row.Date,
		Score:          score,
		FactorCount:    count,
		AboveThreshold: score >= threshold && count >= cfg.MinFactorsRequired(),
		Breakdown:      breakdown,
	}
}
