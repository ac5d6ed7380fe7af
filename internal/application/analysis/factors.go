package analysis

import (
	domain "upsignal/internal/domain/analysis"
)

// DeriveConfig controls the deterministic factor thresholds.
type DeriveConfig struct {
	VolumeSpikeRatio float64 // volume must exceed ratio × trailing average
	RSICutoff        float64 // rsi_over_60 fires above this value
}

// DefaultDeriveConfig returns the shipped thresholds.
func DefaultDeriveConfig() DeriveConfig {
	return DeriveConfig{
		VolumeSpikeRatio: 1.5,
		RSICutoff:        60,
	}
}

func (c DeriveConfig) withDefaults() DeriveConfig {
	def := DefaultDeriveConfig()
	if c.VolumeSpikeRatio <= 0 {
		c.VolumeSpikeRatio = def.VolumeSpikeRatio
	}
	if c.RSICutoff <= 0 {
		c.RSICutoff = def.RSICutoff
	}
	return c
}

// DeriveFactors maps one indicator row to its tri-state factor vector.
// Only the four price/volume factors are written; the six enrichment slots
// stay unknown and are owned by the enrichment collaborator.
//
// break_ma50 and break_ma200 use a plain above/below comparison against the
// moving average, not a crossing test. Any factor whose inputs are still in
// warm-up resolves to false, never true.
func DeriveFactors(row domain.IndicatorRow, cfg DeriveConfig) domain.FactorVector {
	cfg = cfg.withDefaults()
	v := domain.NewFactorVector()

	spike := row.VolumeAvg != nil && *row.VolumeAvg > 0 && row.Volume > cfg.VolumeSpikeRatio*(*row.VolumeAvg)
	_ = v.SetDeterministic(domain.FactorVolumeSpike, spike)

	break50 := row.MA50 != nil && row.Close > *row.MA50
	_ = v.SetDeterministic(domain.FactorBreakMA50, break50)

	break200 := row.MA200 != nil && row.Close > *row.MA200
	_ = v.SetDeterministic(domain.FactorBreakMA200, break200)

	rsiOver := row.RSI != nil && *row.RSI > cfg.RSICutoff
	_ = v.SetDeterministic(domain.FactorRSIOver60, rsiOver)

	return v
}
