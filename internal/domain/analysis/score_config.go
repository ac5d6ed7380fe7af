package analysis

import (
	"fmt"
)

// ScoreConfig 保存評分權重與門檻，於建構時完成驗證。
type ScoreConfig struct {
	weights            map[FactorName]float64
	threshold          float64
	minFactorsRequired int
}

// NewScoreConfig 驗證並建立評分設定。
// 權重不可為空、不可包含未知因子或負值；threshold 必須落在 (0,1)。
func NewScoreConfig(weights map[FactorName]float64, threshold float64, minFactorsRequired int) (ScoreConfig, error) {
	if len(weights) == 0 {
		return ScoreConfig{}, fmt.Errorf("weights are required")
	}
	for name, w := range weights {
		if !IsKnownFactor(name) {
			return ScoreConfig{}, fmt.Errorf("unknown factor %q in weights", name)
		}
		if w < 0 {
			return ScoreConfig{}, fmt.Errorf("weight for %q must not be negative", name)
		}
	}
	if threshold <= 0 || threshold >= 1 {
		return ScoreConfig{}, fmt.Errorf("threshold must be in (0,1), got %v", threshold)
	}
	if minFactorsRequired < 0 {
		return ScoreConfig{}, fmt.Errorf("min factors required must not be negative")
	}

	copied := make(map[FactorName]float64, len(weights))
	for name, w := range weights {
		copied[name] = w
	}
	return ScoreConfig{
		weights:            copied,
		threshold:          threshold,
		minFactorsRequired: minFactorsRequired,
	}, nil
}

// DefaultScoreConfig 為隨附的預設設定：
// 技術面因子權重高於未經驗證的情緒面因子，門檻 0.3，至少 2 個因子。
func DefaultScoreConfig() ScoreConfig {
	cfg, err := NewScoreConfig(map[FactorName]float64{
		FactorVolumeSpike:    0.20,
		FactorBreakMA50:      0.15,
		FactorBreakMA200:     0.15,
		FactorRSIOver60:      0.10,
		FactorMarketUp:       0.10,
		FactorSectorUp:       0.08,
		FactorNewsPositive:   0.07,
		FactorEarningsWindow: 0.05,
		FactorShortCovering:  0.05,
		FactorMacroTailwind:  0.05,
	}, 0.3, 2)
	if err != nil {
		panic(fmt.Sprintf("default score config invalid: %v", err))
	}
	return cfg
}

// IsZero 判斷設定是否尚未建構（零值）。
func (c ScoreConfig) IsZero() bool {
	return len(c.weights) == 0
}

// Weight 回傳單一因子的權重，未設定者為 0。
func (c ScoreConfig) Weight(name FactorName) float64 {
	return c.weights[name]
}

// Weights 回傳權重副本。
func (c ScoreConfig) Weights() map[FactorName]float64 {
	out := make(map[FactorName]float64, len(c.weights))
	for name, w := range c.weights {
		out[name] = w
	}
	return out
}

// Threshold 回傳設定的門檻。
func (c ScoreConfig) Threshold() float64 {
	return c.threshold
}

// MinFactorsRequired 回傳符合門檻所需的最少因子數。
func (c ScoreConfig) MinFactorsRequired() int {
	return c.minFactorsRequired
}

// MaxPossibleScore 回傳權重總和，即單日分數上限。
func (c ScoreConfig) MaxPossibleScore() float64 {
	sum := 0.0
	for _, w := range c.weights {
		sum += w
	}
	return sum
}
