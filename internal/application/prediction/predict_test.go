package prediction

import (
	"math"
	"reflect"
	"testing"

	domain "upsignal/internal/domain/analysis"
)

func vector(t *testing.T, active ...domain.FactorName) domain.FactorVector {
	t.Helper()
	m := make(map[domain.FactorName]*bool, len(active))
	for _, f := range active {
		v := true
		m[f] = &v
	}
	out, err := domain.FactorVectorFromMap(m)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestPredict_Categories(t *testing.T) {
	cfg := domain.DefaultScoreConfig() // threshold 0.3

	tests := []struct {
		name   string
		active []domain.FactorName
		want   Category
	}{
		{
			name:   "high probability at threshold",
			active: []domain.FactorName{domain.FactorVolumeSpike, domain.FactorRSIOver60}, // 0.30
			want:   CategoryHighProbability,
		},
		{
			name:   "moderate above 0.7x threshold",
			active: []domain.FactorName{domain.FactorVolumeSpike, domain.FactorMacroTailwind}, // 0.25
			want:   CategoryModerate,
		},
		{
			name:   "moderate with three small factors",
			active: []domain.FactorName{domain.FactorBreakMA50, domain.FactorMacroTailwind, domain.FactorEarningsWindow}, // 0.25
			want:   CategoryModerate,
		},
		{
			name:   "low probability",
			active: []domain.FactorName{domain.FactorShortCovering}, // 0.05
			want:   CategoryLowProbability,
		},
		{
			name: "no factors",
			want: CategoryLowProbability,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Predict("2330", vector(t, tt.active...), cfg)
			if p.Category != tt.want {
				t.Errorf("category = %s (score %v), want %s", p.Category, p.Score, tt.want)
			}
		})
	}
}

func TestPredict_SameArithmeticAsBatch(t *testing.T) {
	cfg := domain.DefaultScoreConfig()
	v := vector(t, domain.FactorVolumeSpike, domain.FactorBreakMA50)

	p := Predict("2330", v, cfg)
	want := cfg.Weight(domain.FactorVolumeSpike) + cfg.Weight(domain.FactorBreakMA50)
	if math.Abs(p.Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", p.Score, want)
	}
	if !p.AboveThreshold {
		t.Error("0.35 with two factors should be above the 0.3 threshold")
	}

	// 因子數不足時即使分數達標也不通過門檻
	strict, err := domain.NewScoreConfig(cfg.Weights(), 0.15, 3)
	if err != nil {
		t.Fatal(err)
	}
	p2 := Predict("2330", v, strict)
	if p2.AboveThreshold {
		t.Error("two factors must not satisfy minFactorsRequired=3")
	}
}

func TestPredict_ConfidenceFixedAndMonotonic(t *testing.T) {
	cfg := domain.DefaultScoreConfig()

	none := Predict("2330", vector(t), cfg)
	if none.Confidence != 0 {
		t.Errorf("no factors: confidence = %v, want 0", none.Confidence)
	}

	// min(100, 100*0.20/1.0 + 4*1) = 24
	one := Predict("2330", vector(t, domain.FactorVolumeSpike), cfg)
	if math.Abs(one.Confidence-24) > 1e-9 {
		t.Errorf("one factor: confidence = %v, want 24", one.Confidence)
	}

	// min(100, 100*0.35 + 4*2) = 43
	two := Predict("2330", vector(t, domain.FactorVolumeSpike, domain.FactorBreakMA50), cfg)
	if math.Abs(two.Confidence-43) > 1e-9 {
		t.Errorf("two factors: confidence = %v, want 43", two.Confidence)
	}

	all := Predict("2330", vector(t, domain.AllFactors()...), cfg)
	if all.Confidence != 100 {
		t.Errorf("all factors: confidence = %v, want capped at 100", all.Confidence)
	}

	if !(none.Confidence < one.Confidence && one.Confidence < two.Confidence && two.Confidence < all.Confidence) {
		t.Error("confidence must grow with score and factor count")
	}
}

func TestPredict_RecommendationsDeterministic(t *testing.T) {
	cfg := domain.DefaultScoreConfig()
	v := vector(t, domain.FactorBreakMA50, domain.FactorVolumeSpike)

	a := Predict("2330", v, cfg)
	b := Predict("2330", v, cfg)
	if !reflect.DeepEqual(a, b) {
		t.Error("prediction must be deterministic for identical input")
	}

	if len(a.Recommendations) != 2 {
		t.Fatalf("recommendations = %d, want 2", len(a.Recommendations))
	}
	// 順序固定依 AllFactors：volume_spike 先於 break_ma50
	if a.Recommendations[0] != recommendationCatalog[domain.FactorVolumeSpike] {
		t.Errorf("first recommendation = %q", a.Recommendations[0])
	}
	if a.ActiveFactors[0] != domain.FactorVolumeSpike || a.ActiveFactors[1] != domain.FactorBreakMA50 {
		t.Errorf("active factors = %v", a.ActiveFactors)
	}
}

func TestPredict_NoFactorsRecommendation(t *testing.T) {
	p := Predict("2330", vector(t), domain.DefaultScoreConfig())
	if len(p.Recommendations) != 1 || p.Recommendations[0] != recommendationNoFactors {
		t.Errorf("recommendations = %v", p.Recommendations)
	}
	if p.Interpretation == "" {
		t.Error("interpretation should not be empty")
	}
}

func TestPredict_ZeroConfigUsesDefault(t *testing.T) {
	p := Predict("2330", vector(t, domain.FactorVolumeSpike, domain.FactorRSIOver60), domain.ScoreConfig{})
	if p.Category != CategoryHighProbability {
		t.Errorf("category = %s, want HIGH_PROBABILITY with default config", p.Category)
	}
}
