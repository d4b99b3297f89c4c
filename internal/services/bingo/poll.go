package bingo

import (
	"context"

	"bingo-tracker/internal/models"
)

const latestSource = "official:LatestBingoResult"

// PollResult is the structured outcome of one poll cycle. Failures are data,
// not panics: scheduled runs log them, forced runs hand them to the caller.
type PollResult struct {
	OK     bool               `json:"ok"`
	Source string             `json:"source"`
	Record *models.DrawRecord `json:"record,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// PollOnce runs a single Fetching → Normalizing → Persisting cycle for the
// latest official result. Any failure aborts the cycle; the caller (cron or
// a forced request) decides what to do with the result.
func (s *Service) PollOnce(ctx context.Context) PollResult {
	body, _, err := s.fetcher.Fetch(ctx, s.cfg.FeedURL)
	if err != nil {
		return PollResult{Source: latestSource, Error: err.Error()}
	}

	rec, err := s.normalizeLatest([]byte(body))
	if err != nil {
		return PollResult{Source: latestSource, Error: err.Error()}
	}

	if err := s.store.ReplaceUpsert(rec); err != nil {
		return PollResult{Source: latestSource, Error: err.Error()}
	}

	s.log.Infof("第 %d 期已入庫（特別獎號 %d）", rec.Period, rec.SpecialNumber)
	if s.onLatest != nil {
		s.onLatest(rec)
	}
	return PollResult{OK: true, Source: latestSource, Record: rec}
}
