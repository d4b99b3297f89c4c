package bingo

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bingo-tracker/internal/models"

	json "github.com/goccy/go-json"
)

// ErrMalformedFeed marks an official feed document we cannot derive a record
// from. It is never retried; the poll cycle aborts and waits for the next one.
var ErrMalformedFeed = errors.New("official feed payload is malformed")

const openOrderLen = 20

// latestFeed mirrors the official LatestBingoResult envelope. Anything beyond
// the fields below is schema drift we tolerate.
type latestFeed struct {
	Content struct {
		LotteryBingoLatestPost *latestPost `json:"lotteryBingoLatestPost"`
	} `json:"content"`
}

type latestPost struct {
	DrawTerm      flexString  `json:"drawTerm"`
	DDate         string      `json:"dDate"`
	OpenShowOrder flexNumbers `json:"openShowOrder"`
	BigShowOrder  flexNumbers `json:"bigShowOrder"`
	HighLow       flexString  `json:"highLow"`
	OddEven       flexString  `json:"oddEven"`
	PrizeNum      struct {
		BullEye flexString `json:"bullEye"`
	} `json:"prizeNum"`
}

// flexString accepts a JSON string or number and keeps the raw text.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	*f = flexString(trimmed)
	return nil
}

// flexNumbers accepts the open order as an array (strings or numbers mixed)
// or as one delimited string.
type flexNumbers []string

func (f *flexNumbers) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var items []any
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			switch v := item.(type) {
			case string:
				out = append(out, strings.TrimSpace(v))
			case float64:
				out = append(out, strconv.Itoa(int(v)))
			default:
				return fmt.Errorf("unsupported open-order element %T", item)
			}
		}
		*f = out
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = splitNumberTokens(s)
	return nil
}

var tokenSplitRe = regexp.MustCompile(`[,，、;\s]+`)

func splitNumberTokens(s string) []string {
	var out []string
	for _, t := range tokenSplitRe.Split(s, -1) {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeLatest maps one official feed document onto a DrawRecord.
func (s *Service) normalizeLatest(raw []byte) (*models.DrawRecord, error) {
	var feed latestFeed
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	post := feed.Content.LotteryBingoLatestPost
	if post == nil {
		return nil, fmt.Errorf("%w: missing content.lotteryBingoLatestPost", ErrMalformedFeed)
	}

	period, err := strconv.ParseInt(string(post.DrawTerm), 10, 64)
	if err != nil || period <= 0 {
		return nil, fmt.Errorf("%w: unusable drawTerm %q", ErrMalformedFeed, post.DrawTerm)
	}

	padded, err := padTokens(post.OpenShowOrder)
	if err != nil || len(padded) != openOrderLen {
		return nil, fmt.Errorf("%w: open order has %d usable numbers, want %d",
			ErrMalformedFeed, len(padded), openOrderLen)
	}

	// 特別獎號：官方欄位優先，缺漏或非數字時退回開出順序最後一顆
	special, err := strconv.Atoi(string(post.PrizeNum.BullEye))
	if err != nil {
		special, _ = strconv.Atoi(padded[len(padded)-1])
	}

	rec := &models.DrawRecord{
		Period:        period,
		DrawTime:      s.parseDrawTime(post.DDate),
		OpenOrder:     models.JoinOpenOrder(padded),
		SpecialNumber: special,
		FetchedAt:     time.Now().In(s.loc),
	}
	if v := string(post.HighLow); v != "" {
		rec.HighLow = &v
	}
	if v := string(post.OddEven); v != "" {
		rec.OddEven = &v
	}
	return rec, nil
}

// normalizeBackfill builds a record from a reconstructed row. A token count
// other than 20 is a quiet rejection, not an error. The exact intraday draw
// time is not recoverable from backfill sources, so draw_time is pinned to
// the start of the current day.
func (s *Service) normalizeBackfill(period int64, tokens []string) *models.DrawRecord {
	if period <= 0 || len(tokens) != openOrderLen {
		return nil
	}
	padded, err := padTokens(tokens)
	if err != nil {
		return nil
	}
	special, _ := strconv.Atoi(padded[len(padded)-1])
	return &models.DrawRecord{
		Period:        period,
		DrawTime:      s.todayStart(),
		OpenOrder:     models.JoinOpenOrder(padded),
		SpecialNumber: special,
		FetchedAt:     time.Now().In(s.loc),
	}
}

// padTokens normalizes number-like tokens to two-digit zero-padded strings.
func padTokens(tokens []string) ([]string, error) {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return nil, fmt.Errorf("non-numeric token %q", t)
		}
		out = append(out, fmt.Sprintf("%02d", n))
	}
	return out, nil
}

var drawTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

func (s *Service) parseDrawTime(raw string) time.Time {
	for _, layout := range drawTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, s.loc); err == nil {
			return t
		}
	}
	return time.Now().In(s.loc)
}
