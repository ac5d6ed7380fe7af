package analysis

import (
	"encoding/json"
	"fmt"
)

// FactorName 為因子的正準名稱。
type FactorName string

const (
	// 可由價量資料決定的因子。
	FactorVolumeSpike FactorName = "volume_spike"
	FactorBreakMA50   FactorName = "break_ma50"
	FactorBreakMA200  FactorName = "break_ma200"
	FactorRSIOver60   FactorName = "rsi_over_60"

	// 由外部補值協作者提供的因子，引擎本身不寫入。
	FactorMarketUp       FactorName = "market_up"
	FactorSectorUp       FactorName = "sector_up"
	FactorEarningsWindow FactorName = "earnings_window"
	FactorNewsPositive   FactorName = "news_positive"
	FactorShortCovering  FactorName = "short_covering"
	FactorMacroTailwind  FactorName = "macro_tailwind"
)

var deterministicFactors = []FactorName{
	FactorVolumeSpike,
	FactorBreakMA50,
	FactorBreakMA200,
	FactorRSIOver60,
}

var externalFactors = []FactorName{
	FactorMarketUp,
	FactorSectorUp,
	FactorEarningsWindow,
	FactorNewsPositive,
	FactorShortCovering,
	FactorMacroTailwind,
}

// AllFactors 回傳全部 10 個因子，順序固定。
func AllFactors() []FactorName {
	out := make([]FactorName, 0, len(deterministicFactors)+len(externalFactors))
	out = append(out, deterministicFactors...)
	out = append(out, externalFactors...)
	return out
}

// DeterministicFactors 回傳引擎可自行計算的因子。
func DeterministicFactors() []FactorName {
	out := make([]FactorName, len(deterministicFactors))
	copy(out, deterministicFactors)
	return out
}

// ExternalFactors 回傳僅能由外部補值的因子。
func ExternalFactors() []FactorName {
	out := make([]FactorName, len(externalFactors))
	copy(out, externalFactors)
	return out
}

// IsDeterministic 判斷因子是否由引擎計算。
func IsDeterministic(name FactorName) bool {
	for _, f := range deterministicFactors {
		if f == name {
			return true
		}
	}
	return false
}

// IsExternal 判斷因子是否屬於外部補值欄位。
func IsExternal(name FactorName) bool {
	for _, f := range externalFactors {
		if f == name {
			return true
		}
	}
	return false
}

// IsKnownFactor 判斷名稱是否為 10 個正準因子之一。
func IsKnownFactor(name FactorName) bool {
	return IsDeterministic(name) || IsExternal(name)
}

// FactorVector 保存單一交易日 10 個因子的三態值。
// nil 表示未知，與 false 嚴格區分；FactorCount 只計算嚴格為 true 的因子。
type FactorVector struct {
	values map[FactorName]*bool
}

// NewFactorVector 建立所有因子皆為未知的向量。
func NewFactorVector() FactorVector {
	values := make(map[FactorName]*bool, 10)
	for _, f := range AllFactors() {
		values[f] = nil
	}
	return FactorVector{values: values}
}

// FactorVectorFromMap 由名稱對應表建立向量，未知名稱視為錯誤。
// 外部因子允許帶值，代表補值協作者已經填過。
func FactorVectorFromMap(m map[FactorName]*bool) (FactorVector, error) {
	v := NewFactorVector()
	for name, val := range m {
		if !IsKnownFactor(name) {
			return FactorVector{}, fmt.Errorf("unknown factor %q", name)
		}
		if val != nil {
			b := *val
			v.values[name] = &b
		}
	}
	return v, nil
}

// Value 回傳因子的三態值；未知名稱一律回傳 nil。
func (v FactorVector) Value(name FactorName) *bool {
	if v.values == nil {
		return nil
	}
	return v.values[name]
}

// Active 僅在因子嚴格為 true 時回傳 true。
func (v FactorVector) Active(name FactorName) bool {
	val := v.Value(name)
	return val != nil && *val
}

// ActiveCount 計算嚴格為 true 的因子數。
func (v FactorVector) ActiveCount() int {
	n := 0
	for _, f := range AllFactors() {
		if v.Active(f) {
			n++
		}
	}
	return n
}

// ActiveFactors 回傳嚴格為 true 的因子，順序同 AllFactors。
func (v FactorVector) ActiveFactors() []FactorName {
	var out []FactorName
	for _, f := range AllFactors() {
		if v.Active(f) {
			out = append(out, f)
		}
	}
	return out
}

// SetDeterministic 寫入價量因子；外部因子與未知名稱一律拒絕，
// 引擎因此無法覆寫補值協作者擁有的欄位。
func (v FactorVector) SetDeterministic(name FactorName, value bool) error {
	if !IsDeterministic(name) {
		return fmt.Errorf("factor %q is not writable by the engine", name)
	}
	b := value
	v.values[name] = &b
	return nil
}

// Clone 回傳獨立副本，修改副本不影響原向量。
func (v FactorVector) Clone() FactorVector {
	out := NewFactorVector()
	for name, val := range v.values {
		if val != nil {
			b := *val
			out.values[name] = &b
		}
	}
	return out
}

// MarshalJSON 以 name → true/false/null 形式輸出全部 10 個因子。
func (v FactorVector) MarshalJSON() ([]byte, error) {
	m := make(map[FactorName]*bool, 10)
	for _, f := range AllFactors() {
		m[f] = v.Value(f)
	}
	return json.Marshal(m)
}

// UnmarshalJSON 還原向量，未知因子名稱視為錯誤。
func (v *FactorVector) UnmarshalJSON(data []byte) error {
	var m map[FactorName]*bool
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	parsed, err := FactorVectorFromMap(m)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// EnrichmentWriter 由外部補值協作者持有，只允許寫入六個外部因子欄位。
type EnrichmentWriter struct {
	vector FactorVector
}

// NewEnrichmentWriter 將向量包裝為補值專用寫入器。
func NewEnrichmentWriter(v FactorVector) EnrichmentWriter {
	return EnrichmentWriter{vector: v}
}

// SetExternal 寫入外部因子；價量因子與未知名稱一律拒絕。
func (w EnrichmentWriter) SetExternal(name FactorName, value bool) error {
	if !IsExternal(name) {
		return fmt.Errorf("factor %q is not an enrichment field", name)
	}
	b := value
	w.vector.values[name] = &b
	return nil
}

// Clear 將外部因子還原為未知。
func (w EnrichmentWriter) Clear(name FactorName) error {
	if !IsExternal(name) {
		return fmt.Errorf("factor %q is not an enrichment field", name)
	}
	w.vector.values[name] = nil
	return nil
}
