// Package bingo is the ingestion and reconciliation core: the latest-result
// poll cycle, the multi-strategy backfill cascade, and the statistics views
// the routing layer exposes.
package bingo

import (
	"time"

	"bingo-tracker/internal/config"
	"bingo-tracker/internal/fetch"
	"bingo-tracker/internal/models"
	"bingo-tracker/internal/stats"
	"bingo-tracker/internal/store"

	"go.uber.org/zap"
)

type Service struct {
	cfg     *config.Config
	store   *store.Store
	fetcher *fetch.Client
	log     *zap.SugaredLogger
	loc     *time.Location

	// 依序嘗試的官方頁解析策略；備援鏡像另外處理
	strategies []strategy

	onLatest func(*models.DrawRecord)
}

func NewService(cfg *config.Config, st *store.Store, fetcher *fetch.Client, log *zap.SugaredLogger) *Service {
	return &Service{
		cfg:     cfg,
		store:   st,
		fetcher: fetcher,
		log:     log,
		loc:     cfg.Location,
		strategies: []strategy{
			containerScan{},
			fullTextScan{},
			scriptScan{},
		},
	}
}

// SetLatestListener registers a hook invoked after every successful poll
// write (the live websocket hub uses it).
func (s *Service) SetLatestListener(fn func(*models.DrawRecord)) {
	s.onLatest = fn
}

// Latest returns the stored record with the highest period, or nil.
func (s *Service) Latest() (*models.DrawRecord, error) {
	return s.store.Latest()
}

// TodayRecords returns today's stored draws, period ascending.
func (s *Service) TodayRecords() ([]models.DrawRecord, error) {
	return s.store.AllForDay(s.todayStart())
}

// TodayStats carries the derived views over today's draws.
type TodayStats struct {
	Date           string               `json:"date"`
	Count          int                  `json:"count"`
	FrequencyTop   []int                `json:"frequency_top"`
	RecentUnique   []int                `json:"recent_unique"`
	Recommendation stats.Recommendation `json:"recommendation"`
}

func (s *Service) TodayStats() (*TodayStats, error) {
	recs, err := s.TodayRecords()
	if err != nil {
		return nil, err
	}
	values := make([]int, len(recs))
	for i, r := range recs {
		values[i] = r.SpecialNumber
	}

	allTime, err := s.store.AllSpecialNumbersOrdered()
	if err != nil {
		return nil, err
	}

	return &TodayStats{
		Date:           s.todayStart().Format("2006-01-02"),
		Count:          len(values),
		FrequencyTop:   stats.FrequencyTopK(values, 10),
		RecentUnique:   stats.RecencyUnique(values, 20),
		Recommendation: stats.Recommend(values, allTime, s.cfg.MinTodaySamples),
	}, nil
}

// todayStart is the draw-day boundary in the operator's timezone.
func (s *Service) todayStart() time.Time {
	now := time.Now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}
