package analysis

import (
	"math"
	"testing"
)

func TestNewScoreConfig_Validation(t *testing.T) {
	valid := map[FactorName]float64{FactorVolumeSpike: 0.2, FactorBreakMA50: 0.1}

	tests := []struct {
		name       string
		weights    map[FactorName]float64
		threshold  float64
		minFactors int
		wantErr    bool
	}{
		{name: "valid", weights: valid, threshold: 0.3, minFactors: 2},
		{name: "empty weights", weights: nil, threshold: 0.3, minFactors: 2, wantErr: true},
		{name: "unknown factor", weights: map[FactorName]float64{"bogus": 0.5}, threshold: 0.3, minFactors: 2, wantErr: true},
		{name: "negative weight", weights: map[FactorName]float64{FactorVolumeSpike: -0.1}, threshold: 0.3, minFactors: 2, wantErr: true},
		{name: "threshold zero", weights: valid, threshold: 0, minFactors: 2, wantErr: true},
		{name: "threshold one", weights: valid, threshold: 1, minFactors: 2, wantErr: true},
		{name: "negative min factors", weights: valid, threshold: 0.3, minFactors: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScoreConfig(tt.weights, tt.threshold, tt.minFactors)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewScoreConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultScoreConfig(t *testing.T) {
	cfg := DefaultScoreConfig()

	if cfg.Threshold() != 0.3 {
		t.Errorf("threshold = %v, want 0.3", cfg.Threshold())
	}
	if cfg.MinFactorsRequired() != 2 {
		t.Errorf("min factors = %d, want 2", cfg.MinFactorsRequired())
	}
	if math.Abs(cfg.MaxPossibleScore()-1.0) > 1e-9 {
		t.Errorf("max possible score = %v, want 1.0", cfg.MaxPossibleScore())
	}

	// 技術面因子權重須高於情緒面因子
	for _, tech := range []FactorName{FactorVolumeSpike, FactorBreakMA50, FactorBreakMA200, FactorRSIOver60} {
		for _, ext := range []FactorName{FactorEarningsWindow, FactorShortCovering, FactorMacroTailwind} {
			if cfg.Weight(tech) < cfg.Weight(ext) {
				t.Errorf("weight(%s)=%v below weight(%s)=%v", tech, cfg.Weight(tech), ext, cfg.Weight(ext))
			}
		}
	}
}

func TestScoreConfig_WeightsCopy(t *testing.T) {
	cfg := DefaultScoreConfig()
	w := cfg.Weights()
	w[FactorVolumeSpike] = 99

	if cfg.Weight(FactorVolumeSpike) == 99 {
		t.Error("mutating the returned map must not affect the config")
	}
}

func TestScoreConfig_IsZero(t *testing.T) {
	var zero ScoreConfig
	if !zero.IsZero() {
		t.Error("zero-value config should report IsZero")
	}
	if DefaultScoreConfig().IsZero() {
		t.Error("default config should not report IsZero")
	}
}
