// Package stats computes frequency, recency and recommendation views over
// stored special numbers. All functions are pure; the caller supplies the
// day's values and, for recommendations, the all-time sequence.
package stats

import "sort"

// FrequencyTopK ranks values by occurrence count, descending. Ties keep the
// order in which the values were first encountered, so the ranking is stable
// across identical inputs.
func FrequencyTopK(values []int, k int) []int {
	if k <= 0 || len(values) == 0 {
		return nil
	}
	counts := make(map[int]int)
	firstSeen := make(map[int]int)
	order := make([]int, 0)
	for i, v := range values {
		if _, ok := counts[v]; !ok {
			firstSeen[v] = i
			order = append(order, v)
		}
		counts[v]++
	}
	sort.SliceStable(order, func(a, b int) bool {
		if counts[order[a]] != counts[order[b]] {
			return counts[order[a]] > counts[order[b]]
		}
		return firstSeen[order[a]] < firstSeen[order[b]]
	})
	if k > len(order) {
		k = len(order)
	}
	return append([]int(nil), order[:k]...)
}

// RecencyUnique takes the last `take` values in chronological order and
// deduplicates them newest-first, keeping each value's most recent
// occurrence.
func RecencyUnique(values []int, take int) []int {
	if take <= 0 || len(values) == 0 {
		return nil
	}
	if take > len(values) {
		take = len(values)
	}
	window := values[len(values)-take:]
	seen := make(map[int]bool, take)
	out := make([]int, 0, take)
	for i := len(window) - 1; i >= 0; i-- {
		v := window[i]
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Recommendation carries the 1/3/5 pick prefixes and which rationale built them.
type Recommendation struct {
	Pick1     []int  `json:"pick1"`
	Pick3     []int  `json:"pick3"`
	Pick5     []int  `json:"pick5"`
	Rationale string `json:"rationale"`
}

const (
	RationaleTodayFrequency = "today_frequency"
	RationaleBlendedRecency = "blended_recency_fallback"
)

// 混合回退時最多取全期近 50 顆去重序列的前 8 個候選
const (
	blendedRecencyWindow = 50
	blendedRecencyLimit  = 8
	poolSize             = 5
)

// Recommend builds the recommendation pool. With enough same-day samples the
// pool is simply the day's frequency ranking; otherwise it blends the day's
// two hottest numbers with the recent all-time sequence.
func Recommend(todayValues, allTimeValues []int, minSamples int) Recommendation {
	freq := FrequencyTopK(todayValues, poolSize)

	if len(todayValues) >= minSamples && len(freq) > 0 {
		return picksFromPool(freq, RationaleTodayFrequency)
	}

	// 樣本不足：先取當日出現次數前兩名（同次數以較近開出者優先），
	// 再用全期近 50 顆的去重序列補滿到 5 顆。
	pool := FrequencyTopK(reversed(todayValues), 2)
	recent := RecencyUnique(allTimeValues, blendedRecencyWindow)
	if len(recent) > blendedRecencyLimit {
		recent = recent[:blendedRecencyLimit]
	}
	for _, v := range recent {
		if len(pool) >= poolSize {
			break
		}
		if !contains(pool, v) {
			pool = append(pool, v)
		}
	}
	return picksFromPool(pool, RationaleBlendedRecency)
}

func picksFromPool(pool []int, rationale string) Recommendation {
	return Recommendation{
		Pick1:     prefix(pool, 1),
		Pick3:     prefix(pool, 3),
		Pick5:     prefix(pool, 5),
		Rationale: rationale,
	}
}

func prefix(pool []int, n int) []int {
	if n > len(pool) {
		n = len(pool)
	}
	return append([]int(nil), pool[:n]...)
}

func reversed(values []int) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return out
}

func contains(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
