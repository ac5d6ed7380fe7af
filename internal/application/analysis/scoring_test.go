package analysis

import (
	"math"
	"reflect"
	"testing"
	"time"

	domain "upsignal/internal/domain/analysis"
	"upsignal/internal/domain/marketdata"
)

func testDay(date time.Time, active ...domain.FactorName) ScoredDay {
	v := domain.NewFactorVector()
	for _, f := range domain.DeterministicFactors() {
		_ = v.SetDeterministic(f, false)
	}
	for _, f := range active {
		_ = v.SetDeterministic(f, true)
	}
	pct := 1.0
	return ScoredDay{
		Row: domain.IndicatorRow{
			Candle:    marketdata.Candle{Date: date, Close: 100, Volume: 1000},
			PctChange: &pct,
		},
		Factors: v,
	}
}

func dates(n int) []time.Time {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func TestScoreDays_Empty(t *testing.T) {
	cfg := domain.DefaultScoreConfig()
	res := ScoreDays(nil, cfg)

	if len(res.Scores) != 0 {
		t.Errorf("empty input: got %d scores", len(res.Scores))
	}
	if res.EffectiveThreshold != cfg.Threshold() || res.ThresholdAdjusted {
		t.Error("empty input must keep the configured threshold")
	}
}

func TestScoreDays_ScoreBoundsAndMinFactors(t *testing.T) {
	cfg := domain.DefaultScoreConfig()
	ds := dates(4)
	days := []ScoredDay{
		testDay(ds[0]),
		testDay(ds[1], domain.FactorVolumeSpike),
		testDay(ds[2], domain.FactorVolumeSpike, domain.FactorBreakMA50),
		testDay(ds[3], domain.FactorVolumeSpike, domain.FactorBreakMA50, domain.FactorBreakMA200, domain.FactorRSIOver60),
	}

	res := ScoreDays(days, cfg)
	maxPossible := cfg.MaxPossibleScore()
	for _, s := range res.Scores {
		if s.Score < 0 || s.Score > maxPossible {
			t.Errorf("score %v out of [0, %v]", s.Score, maxPossible)
		}
		if s.AboveThreshold && s.FactorCount < cfg.MinFactorsRequired() {
			t.Errorf("above threshold with only %d factors", s.FactorCount)
		}
	}

	// 單一因子 0.2 < 0.3 門檻；雙因子 0.35 >= 0.3 且數量達標
	if res.Scores[1].AboveThreshold {
		t.Error("single 0.2 factor should not qualify at threshold 0.3")
	}
	if !res.Scores[2].AboveThreshold {
		t.Error("0.35 with two factors should qualify")
	}
	if res.Scores[3].FactorCount != 4 {
		t.Errorf("factor count = %d, want 4", res.Scores[3].FactorCount)
	}
}

func TestScoreDays_Idempotent(t *testing.T) {
	cfg := domain.DefaultScoreConfig()
	ds := dates(3)
	days := []ScoredDay{
		testDay(ds[0], domain.FactorVolumeSpike),
		testDay(ds[1], domain.FactorVolumeSpike, domain.FactorRSIOver60),
		testDay(ds[2]),
	}

	a := ScoreDays(days, cfg)
	b := ScoreDays(days, cfg)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical input and config must yield identical batch results")
	}
}

// 規格情境：maxScore = 0.18、無任何一天達到預設 0.3 門檻
// ⇒ 有效門檻 = max(0.75×0.18, 0.15) = 0.15，且依新門檻重算。
func TestScoreDays_AdaptiveThresholdZeroQualifiers(t *testing.T) {
	weights := map[domain.FactorName]float64{
		domain.FactorVolumeSpike: 0.10,
		domain.FactorBreakMA50:   0.08,
	}
	cfg, err := domain.NewScoreConfig(weights, 0.3, 2)
	if err != nil {
		t.Fatal(err)
	}

	ds := dates(3)
	days := []ScoredDay{
		testDay(ds[0], domain.FactorVolumeSpike, domain.FactorBreakMA50), // 0.18
		testDay(ds[1], domain.FactorVolumeSpike),                        // 0.10
		testDay(ds[2]),                                                  // 0
	}

	res := ScoreDays(days, cfg)

	if !res.ThresholdAdjusted {
		t.Fatal("threshold should have been relaxed")
	}
	if res.ConfiguredThreshold != 0.3 {
		t.Errorf("configured threshold = %v, want 0.3", res.ConfiguredThreshold)
	}
	if math.Abs(res.EffectiveThreshold-0.15) > 1e-9 {
		t.Errorf("effective threshold = %v, want 0.15", res.EffectiveThreshold)
	}
	if !res.Scores[0].AboveThreshold {
		t.Error("0.18 day should qualify against the relaxed 0.15 threshold")
	}
	if res.Scores[1].AboveThreshold {
		t.Error("0.10 single-factor day should stay below the relaxed threshold")
	}
}

func TestScoreDays_AdaptiveThresholdLowQualifierShare(t *testing.T) {
	weights := map[domain.FactorName]float64{
		domain.FactorVolumeSpike: 0.20,
		domain.FactorBreakMA50:   0.20,
	}
	cfg, err := domain.NewScoreConfig(weights, 0.35, 2)
	if err != nil {
		t.Fatal(err)
	}

	// 40 天中僅 1 天符合（2.5% < 5%），maxScore = 0.4 > 0.2
	ds := dates(40)
	days := make([]ScoredDay, 40)
	for i := range days {
		days[i] = testDay(ds[i])
	}
	days[10] = testDay(ds[10], domain.FactorVolumeSpike, domain.FactorBreakMA50) // 0.4

	res := ScoreDays(days, cfg)

	if !res.ThresholdAdjusted {
		t.Fatal("threshold should have been adjusted for the sparse batch")
	}
	want := math.Max(0.60*0.4, 0.20) // 0.24
	if math.Abs(res.EffectiveThreshold-want) > 1e-9 {
		t.Errorf("effective threshold = %v, want %v", res.EffectiveThreshold, want)
	}
	if !res.Scores[10].AboveThreshold {
		t.Error("0.4 day should qualify against the adjusted threshold")
	}
}

func TestScoreDays_NoAdjustmentWhenAllZero(t *testing.T) {
	cfg := domain.DefaultScoreConfig()
	ds := dates(2)
	days := []ScoredDay{testDay(ds[0]), testDay(ds[1])}

	res := ScoreDays(days, cfg)
	if res.ThresholdAdjusted {
		t.Error("all-zero batch must keep the configured threshold")
	}
	if res.QualifyingCount() != 0 {
		t.Error("no day should qualify")
	}
}

func TestScoreDays_BreakdownCoversAllFactors(t *testing.T) {
	cfg := domain.DefaultScoreConfig()
	res := ScoreDays([]ScoredDay{testDay(dates(1)[0], domain.FactorVolumeSpike)}, cfg)

	breakdown := res.Scores[0].Breakdown
	if len(breakdown) != 10 {
		t.Fatalf("breakdown has %d entries, want 10", len(breakdown))
	}
	spike := breakdown[domain.FactorVolumeSpike]
	if !spike.Active || spike.Contribution != cfg.Weight(domain.FactorVolumeSpike) {
		t.Errorf("volume_spike contribution = %+v", spike)
	}
	ma200 := breakdown[domain.FactorBreakMA200]
	if ma200.Active || ma200.Contribution != 0 {
		t.Errorf("inactive factor should contribute 0: %+v", ma200)
	}
	if ma200.Weight != cfg.Weight(domain.FactorBreakMA200) {
		t.Errorf("weight missing from breakdown: %+v", ma200)
	}
}
