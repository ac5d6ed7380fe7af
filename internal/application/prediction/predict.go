package prediction

import (
	"fmt"
	"math"

	domain "upsignal/internal/domain/analysis"
)

// Category classifies a prediction against the configured threshold.
type Category string

const (
	CategoryHighProbability Category = "HIGH_PROBABILITY"
	CategoryModerate        Category = "MODERATE"
	CategoryLowProbability  Category = "LOW_PROBABILITY"
)

// Prediction 為單一假設性因子向量的評分結果。
type Prediction struct {
	Symbol          string              `json:"symbol"`
	Score           float64             `json:"score"`
	AboveThreshold  bool                `json:"above_threshold"`
	Category        Category            `json:"category"`
	Confidence      float64             `json:"confidence"`
	ActiveFactors   []domain.FactorName `json:"active_factors"`
	Recommendations []string            `json:"recommendations"`
	Interpretation  string              `json:"interpretation"`
}

// Predict 以與批次評分相同的算術對單一因子向量評分。
//
// 類別：score ≥ threshold → HIGH_PROBABILITY；score ≥ 0.7×threshold →
// MODERATE；其餘 LOW_PROBABILITY。
//
// 信心值為分數與因子數的固定單調函數：
// min(100, 100×score/Σweights + 4×factorCount)，有任一因子啟用時下限為 5。
// 建議文字為固定目錄的規則查表，不呼叫任何外部服務。
func Predict(symbol string, factors domain.FactorVector, cfg domain.ScoreConfig) Prediction {
	if cfg.IsZero() {
		cfg = domain.DefaultScoreConfig()
	}

	score := 0.0
	for _, f := range domain.AllFactors() {
		if factors.Active(f) {
			score += cfg.Weight(f)
		}
	}
	count := factors.ActiveCount()
	threshold := cfg.Threshold()

	var category Category
	switch {
	case score >= threshold:
		category = CategoryHighProbability
	case score >= 0.7*threshold:
		category = CategoryModerate
	default:
		category = CategoryLowProbability
	}

	confidence := 0.0
	if maxPossible := cfg.MaxPossibleScore(); maxPossible > 0 {
		confidence = math.Min(100, 100*score/maxPossible+4*float64(count))
	}
	if count > 0 && confidence < 5 {
		confidence = 5
	}

	aboveThreshold := score >= threshold && count >= cfg.MinFactorsRequired()

	return Prediction{
		Symbol:          symbol,
		Score:           score,
		AboveThreshold:  aboveThreshold,
		Category:        category,
		Confidence:      confidence,
		ActiveFactors:   factors.ActiveFactors(),
		Recommendations: recommendationsFor(factors),
		Interpretation:  interpret(symbol, category, score, count, threshold),
	}
}

// recommendationCatalog 為固定的因子對應建議目錄。
var recommendationCatalog = map[domain.FactorName]string{
	domain.FactorVolumeSpike:    "成交量明顯高於近期均量，進場前確認量能是否持續。",
	domain.FactorBreakMA50:      "收盤站上 50 日均線，短期趨勢轉強。",
	domain.FactorBreakMA200:     "收盤站上 200 日均線，長期趨勢濾網轉為正向。",
	domain.FactorRSIOver60:      "RSI 高於 60 顯示動能強勁，留意 70 以上的過熱訊號。",
	domain.FactorMarketUp:       "大盤同步走強，順勢操作勝率較高。",
	domain.FactorSectorUp:       "所屬族群同步上漲，族群資金動能有利續航。",
	domain.FactorEarningsWindow: "接近財報公布窗口，留意事件波動風險。",
	domain.FactorNewsPositive:   "近期新聞面偏多，確認消息是否已反映於價格。",
	domain.FactorShortCovering:  "空單回補跡象，漲勢可能偏短，設好停利。",
	domain.FactorMacroTailwind:  "總體環境順風，資金面支撐上漲行情。",
}

const recommendationNoFactors = "目前沒有任何啟用因子，等待訊號確認後再行動。"

// recommendationsFor 依啟用因子查表，順序固定。
func recommendationsFor(factors domain.FactorVector) []string {
	var out []string
	for _, f := range domain.AllFactors() {
		if factors.Active(f) {
			out = append(out, recommendationCatalog[f])
		}
	}
	if len(out) == 0 {
		out = append(out, recommendationNoFactors)
	}
	return out
}

func interpret(symbol string, category Category, score float64, count int, threshold float64) string {
	switch category {
	case CategoryHighProbability:
		return fmt.Sprintf("%s 目前 %d 個因子啟用、分數 %.2f，已達 %.2f 門檻，屬於高機率強勢日樣態。", symbol, count, score, threshold)
	case CategoryModerate:
		return fmt.Sprintf("%s 目前 %d 個因子啟用、分數 %.2f，接近 %.2f 門檻，訊號中等，建議等待更多確認。", symbol, count, score, threshold)
	default:
		return fmt.Sprintf("%s 目前 %d 個因子啟用、分數 %.2f，距離 %.2f 門檻仍遠，上漲訊號偏弱。", symbol, count, score, threshold)
	}
}
