package bingo

import (
	"errors"
	"testing"
	"time"

	"bingo-tracker/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newParseService(t *testing.T) *Service {
	t.Helper()
	cfg := &config.Config{Location: time.UTC, MinTodaySamples: 15}
	return &Service{cfg: cfg, loc: cfg.Location, log: zap.NewNop().Sugar()}
}

const latestFeedDoc = `{
  "content": {
    "lotteryBingoLatestPost": {
      "drawTerm": "115011453",
      "dDate": "2024-05-01T08:05:00",
      "openShowOrder": [5, 17, 3, 42, 64, 28, 9, 71, 33, 50, 12, 60, 8, 25, 47, 2, 39, 55, 19, 64],
      "highLow": "大",
      "oddEven": "雙",
      "prizeNum": { "bullEye": "64" }
    }
  }
}`

func TestNormalizeLatest(t *testing.T) {
	s := newParseService(t)

	rec, err := s.normalizeLatest([]byte(latestFeedDoc))
	require.NoError(t, err)

	assert.Equal(t, int64(115011453), rec.Period)
	assert.Equal(t, 64, rec.SpecialNumber)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 5, 0, 0, time.UTC), rec.DrawTime)

	tokens := rec.OpenOrderNumbers()
	require.Len(t, tokens, 20)
	for _, tok := range tokens {
		assert.Len(t, tok, 2)
	}
	assert.Equal(t, "05", tokens[0])
	assert.Equal(t, "64", tokens[19])

	require.NotNil(t, rec.HighLow)
	assert.Equal(t, "大", *rec.HighLow)
	require.NotNil(t, rec.OddEven)
	assert.Equal(t, "雙", *rec.OddEven)
}

func TestNormalizeLatestDelimitedOpenOrder(t *testing.T) {
	s := newParseService(t)
	doc := `{"content":{"lotteryBingoLatestPost":{
		"drawTerm": 115011454,
		"dDate": "2024/05/01 08:10:00",
		"openShowOrder": "1, 2,3，4、5 6;7,8,9,10,11,12,13,14,15,16,17,18,19,20",
		"prizeNum": {"bullEye": 20}
	}}}`

	rec, err := s.normalizeLatest([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, int64(115011454), rec.Period)
	assert.Equal(t, 20, rec.SpecialNumber)
	assert.Equal(t, "01", rec.OpenOrderNumbers()[0])
	assert.Equal(t, "20", rec.OpenOrderNumbers()[19])
}

func TestNormalizeLatestBullEyeFallsBackToLastNumber(t *testing.T) {
	s := newParseService(t)
	doc := `{"content":{"lotteryBingoLatestPost":{
		"drawTerm": "115011455",
		"dDate": "2024-05-01T08:15:00",
		"openShowOrder": [1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17,18,19,7],
		"prizeNum": {}
	}}}`

	rec, err := s.normalizeLatest([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 7, rec.SpecialNumber)
}

func TestNormalizeLatestMalformed(t *testing.T) {
	s := newParseService(t)

	cases := map[string]string{
		"not json":     `{{`,
		"missing post": `{"content":{}}`,
		"bad drawTerm": `{"content":{"lotteryBingoLatestPost":{
			"drawTerm":"n/a",
			"openShowOrder":[1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17,18,19,20],
			"prizeNum":{"bullEye":"20"}}}}`,
		"19 numbers": `{"content":{"lotteryBingoLatestPost":{
			"drawTerm":"115011456",
			"openShowOrder":[1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17,18,19],
			"prizeNum":{"bullEye":"19"}}}}`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.normalizeLatest([]byte(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedFeed))
		})
	}
}

func TestNormalizeLatestUnparseableDateFallsBackToNow(t *testing.T) {
	s := newParseService(t)
	doc := `{"content":{"lotteryBingoLatestPost":{
		"drawTerm": "115011457",
		"dDate": "yesterday-ish",
		"openShowOrder": [1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17,18,19,20],
		"prizeNum": {"bullEye": "20"}
	}}}`

	before := time.Now().In(s.loc)
	rec, err := s.normalizeLatest([]byte(doc))
	require.NoError(t, err)
	assert.False(t, rec.DrawTime.Before(before.Add(-time.Second)))
}

func TestNormalizeBackfill(t *testing.T) {
	s := newParseService(t)

	tokens := []string{"5", "17", "3", "42", "64", "28", "9", "71", "33", "50",
		"12", "60", "8", "25", "47", "2", "39", "55", "19", "64"}

	rec := s.normalizeBackfill(115011453, tokens)
	require.NotNil(t, rec)
	assert.Equal(t, int64(115011453), rec.Period)
	assert.Equal(t, 64, rec.SpecialNumber)
	assert.Equal(t, "05", rec.OpenOrderNumbers()[0])
	assert.Equal(t, s.todayStart(), rec.DrawTime)
	assert.Nil(t, rec.HighLow)
	assert.Nil(t, rec.OddEven)

	assert.Nil(t, s.normalizeBackfill(115011453, tokens[:19]), "19 tokens must be rejected")
	assert.Nil(t, s.normalizeBackfill(0, tokens), "period 0 must be rejected")
	assert.Nil(t, s.normalizeBackfill(115011453, append(tokens[:19], "x")), "non numeric token must be rejected")
}
