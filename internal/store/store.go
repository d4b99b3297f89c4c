// Package store owns the draw_records table. Writes come in exactly two
// flavours: replace-upsert for the single "latest" slot and ignore-upsert
// for backfill batches.
package store

import (
	"fmt"
	"os"
	"time"

	"bingo-tracker/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db            *gorm.DB
	exportLogPath string
	log           *zap.SugaredLogger
}

func New(db *gorm.DB, exportLogPath string, log *zap.SugaredLogger) *Store {
	return &Store{db: db, exportLogPath: exportLogPath, log: log}
}

// ReplaceUpsert inserts the record or overwrites the row sharing its period.
// Only the latest poller uses it; a later reading of the same period wins.
// Every write is mirrored to the plain-text export log when configured.
func (s *Store) ReplaceUpsert(rec *models.DrawRecord) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "period"}},
		UpdateAll: true,
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("replace upsert period %d: %w", rec.Period, err)
	}
	s.appendExportLine(rec)
	return nil
}

// IgnoreUpsertMany inserts each record only if its period is absent and
// returns how many rows were actually inserted. Row-level failures are
// logged and skipped; the batch is applied in one transaction so readers
// never observe it half-written.
func (s *Store) IgnoreUpsertMany(recs []models.DrawRecord) (int, error) {
	inserted := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range recs {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "period"}},
				DoNothing: true,
			}).Create(&recs[i])
			if res.Error != nil {
				s.log.Warnf("ignore upsert period %d failed: %v", recs[i].Period, res.Error)
				continue
			}
			inserted += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("ignore upsert batch: %w", err)
	}
	return inserted, nil
}

// Latest returns the stored record with the highest period, or nil.
func (s *Store) Latest() (*models.DrawRecord, error) {
	var rec models.DrawRecord
	err := s.db.Order("period desc").First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest record: %w", err)
	}
	return &rec, nil
}

// AllForDay returns every record whose draw time falls on the calendar day
// starting at dayStart, ordered by period ascending.
func (s *Store) AllForDay(dayStart time.Time) ([]models.DrawRecord, error) {
	var recs []models.DrawRecord
	err := s.db.
		Where("draw_time >= ? AND draw_time < ?", dayStart, dayStart.Add(24*time.Hour)).
		Order("period asc").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("query records for day %s: %w", dayStart.Format("2006-01-02"), err)
	}
	return recs, nil
}

// AllSpecialNumbersOrdered returns every stored special number, period ascending.
func (s *Store) AllSpecialNumbersOrdered() ([]int, error) {
	var nums []int
	err := s.db.Model(&models.DrawRecord{}).
		Order("period asc").
		Pluck("special_number", &nums).Error
	if err != nil {
		return nil, fmt.Errorf("query special numbers: %w", err)
	}
	return nums, nil
}

// Count returns the total number of stored draws.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&models.DrawRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// appendExportLine mirrors one poll write to the append-only audit file.
// 失敗只記 log，不影響主流程。
func (s *Store) appendExportLine(rec *models.DrawRecord) {
	if s.exportLogPath == "" {
		return
	}
	f, err := os.OpenFile(s.exportLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.log.Warnf("export log open failed: %v", err)
		return
	}
	defer f.Close()
	line := fmt.Sprintf("%s period=%d special=%d open=%s\n",
		rec.DrawTime.Format(time.RFC3339), rec.Period, rec.SpecialNumber, rec.OpenOrder)
	if _, err := f.WriteString(line); err != nil {
		s.log.Warnf("export log write failed: %v", err)
	}
}
