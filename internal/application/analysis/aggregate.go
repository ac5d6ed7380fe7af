package analysis

import (
	domain "upsignal/internal/domain/analysis"
)

// FactorStat 描述單一因子在批次中的出現頻率與命中率，皆為 0–1 的比例。
// 分母為空時欄位為 nil（not available），不得以 0 誤導。
type FactorStat struct {
	Frequency *float64 `json:"frequency"` // 子集中因子啟用的天數比例
	HitRate   *float64 `json:"hit_rate"`  // 因子啟用且次日報酬為正的比例
}

// Summary 為一批評分結果的描述統計。
// 僅供描述，不做顯著性檢定，也不構成因果宣稱。
type Summary struct {
	Count        int                              `json:"count"`
	AverageScore *float64                         `json:"average_score"`
	MinScore     *float64                         `json:"min_score"`
	MaxScore     *float64                         `json:"max_score"`
	Factors      map[domain.FactorName]FactorStat `json:"factors"`
}

// Summarize 對評分批次計算因子頻率、命中率與分數統計。
// onlyAbove 為 true 時僅統計符合門檻的天數。
// days 與 batch.Scores 依索引對齊；命中率的「次日報酬」取整個批次中
// 下一列的 PctChange，最後一天因無次日資料不列入分母。
func Summarize(days []ScoredDay, batch BatchResult, onlyAbove bool) Summary {
	summary := Summary{
		Factors: make(map[domain.FactorName]FactorStat, 10),
	}
	if len(days) == 0 || len(batch.Scores) != len(days) {
		for _, f := range domain.AllFactors() {
			summary.Factors[f] = FactorStat{}
		}
		return summary
	}

	subset := make([]int, 0, len(days))
	for i, s := range batch.Scores {
		if onlyAbove && !s.AboveThreshold {
			continue
		}
		subset = append(subset, i)
	}

	summary.Count = len(subset)
	if len(subset) > 0 {
		sum := 0.0
		minScore := batch.Scores[subset[0]].Score
		maxScore := minScore
		for _, i := range subset {
			s := batch.Scores[i].Score
			sum += s
			if s < minScore {
				minScore = s
			}
			if s > maxScore {
				maxScore = s
			}
		}
		avg := sum / float64(len(subset))
		summary.AverageScore = &avg
		summary.MinScore = &minScore
		summary.MaxScore = &maxScore
	}

	for _, f := range domain.AllFactors() {
		summary.Factors[f] = factorStat(days, subset, f)
	}
	return summary
}

func factorStat(days []ScoredDay, subset []int, name domain.FactorName) FactorStat {
	var stat FactorStat
	if len(subset) == 0 {
		return stat
	}

	activeDays := 0
	hitDenominator := 0
	hits := 0
	for _, i := range subset {
		if !days[i].Factors.Active(name) {
			continue
		}
		activeDays++

		// 次日報酬：整個批次的下一列
		if i+1 >= len(days) {
			continue
		}
		next := days[i+1].Row.PctChange
		if next == nil {
			continue
		}
		hitDenominator++
		if *next > 0 {
			hits++
		}
	}

	freq := float64(activeDays) / float64(len(subset))
	stat.Frequency = &freq

	if hitDenominator > 0 {
		hr := float64(hits) / float64(hitDenominator)
		stat.HitRate = &hr
	}
	return stat
}
