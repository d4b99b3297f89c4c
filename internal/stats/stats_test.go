package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequencyTopK(t *testing.T) {
	values := []int{7, 3, 7, 9, 3, 7}

	top := FrequencyTopK(values, 2)
	assert.Equal(t, []int{7, 3}, top)

	// k 大於相異值數量時只回傳既有的排名
	top = FrequencyTopK(values, 10)
	assert.Equal(t, []int{7, 3, 9}, top)

	assert.Nil(t, FrequencyTopK(nil, 3))
	assert.Nil(t, FrequencyTopK(values, 0))
}

func TestFrequencyTopKTieBreak(t *testing.T) {
	// 12 與 7 各出現一次：先遇到的 12 要排在前面
	values := []int{64, 64, 12, 7, 64}
	assert.Equal(t, []int{64, 12, 7}, FrequencyTopK(values, 5))
}

func TestRecencyUnique(t *testing.T) {
	values := []int{1, 2, 3, 2, 4, 3}

	out := RecencyUnique(values, 6)
	assert.Equal(t, []int{3, 4, 2, 1}, out)

	// take 只看最後幾顆
	out = RecencyUnique(values, 3)
	assert.Equal(t, []int{3, 4, 2}, out)

	assert.Nil(t, RecencyUnique(nil, 5))
	assert.Nil(t, RecencyUnique(values, 0))
}

func TestRecencyUniqueNeverDuplicates(t *testing.T) {
	values := []int{5, 5, 5, 5, 5}
	out := RecencyUnique(values, 50)
	assert.Equal(t, []int{5}, out)
}

func TestRecommendTodayFrequency(t *testing.T) {
	today := make([]int, 0, 20)
	for i := 0; i < 10; i++ {
		today = append(today, 64)
	}
	today = append(today, 7, 7, 7, 12, 12, 9, 3, 1, 2, 4)
	require.GreaterOrEqual(t, len(today), 15)

	rec := Recommend(today, nil, 15)
	assert.Equal(t, RationaleTodayFrequency, rec.Rationale)
	assert.Equal(t, []int{64}, rec.Pick1)
	assert.Equal(t, []int{64, 7, 12}, rec.Pick3)
	assert.Len(t, rec.Pick5, 5)
	assert.Equal(t, []int{64, 7, 12, 9, 3}, rec.Pick5)
}

func TestRecommendBlendedFallback(t *testing.T) {
	// 當日僅 5 筆（低於門檻 15）：取當日前兩熱門（同次數取較近開出者），
	// 再以全期近期去重序列補滿到 5 顆
	today := []int{64, 64, 12, 7, 64}
	allTime := []int{5, 11, 3, 9, 12, 7, 64}

	rec := Recommend(today, allTime, 15)
	assert.Equal(t, RationaleBlendedRecency, rec.Rationale)
	assert.Equal(t, []int{64}, rec.Pick1)
	assert.Equal(t, []int{64, 7, 12}, rec.Pick3)
	assert.Equal(t, []int{64, 7, 12, 9, 3}, rec.Pick5)
}

func TestRecommendBlendedRespectsRecencyLimit(t *testing.T) {
	// 全期序列很長時，回退池最多只消化去重序列的前 8 個
	today := []int{1, 1, 2}
	allTime := make([]int, 0, 60)
	for v := 10; v < 70; v++ {
		allTime = append(allTime, v)
	}

	rec := Recommend(today, allTime, 15)
	assert.Equal(t, RationaleBlendedRecency, rec.Rationale)
	// 池 = [1 2] + 最新的三顆 69 68 67
	assert.Equal(t, []int{1, 2, 69, 68, 67}, rec.Pick5)
}

func TestRecommendEmptyDay(t *testing.T) {
	rec := Recommend(nil, []int{4, 8, 15, 16, 23, 42}, 15)
	assert.Equal(t, RationaleBlendedRecency, rec.Rationale)
	assert.Equal(t, []int{42}, rec.Pick1)
	assert.Equal(t, []int{42, 23, 16, 15, 8}, rec.Pick5)
}
