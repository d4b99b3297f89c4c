package bingo

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"bingo-tracker/internal/models"
)

// 小於這個長度的回應視為空殼頁（challenge 殘骸、錯誤跳轉等）
const minUsefulBodySize = 500

const (
	snapshotPrimary = "last_primary.html"
	snapshotMirror  = "last_mirror.html"
)

// BackfillResult is the structured outcome of one reconstruction run.
type BackfillResult struct {
	OK       bool   `json:"ok"`
	Source   string `json:"source,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Parsed   int    `json:"parsed"`
	Inserted int    `json:"inserted"`
	Error    string `json:"error,omitempty"`
}

// BackfillOnce tries to reconstruct every draw of the current day: the
// primary page through the strategy cascade first, the mirror as a last
// resort. The first strategy that yields at least one row wins; rows are
// deduplicated by period, sorted ascending and ignore-upserted.
func (s *Service) BackfillOnce(ctx context.Context) BackfillResult {
	if body, srcURL, ok := s.fetchPrimary(ctx); ok {
		s.snapshot(snapshotPrimary, body)
		p := newPage(body)
		for _, st := range s.strategies {
			if rows := st.attempt(p); len(rows) > 0 {
				return s.persistRows(rows, srcURL, st.name())
			}
			s.log.Debugf("backfill strategy %s: no rows", st.name())
		}
	}

	body, _, err := s.fetcher.Fetch(ctx, s.cfg.MirrorURL)
	if err != nil {
		s.log.Warnf("backfill: mirror unreachable: %v", err)
		return BackfillResult{Error: "no source reachable"}
	}
	s.snapshot(snapshotMirror, body)

	m := mirrorScan{}
	rows := m.attempt(newPage(body))
	if len(rows) == 0 {
		return BackfillResult{Source: s.cfg.MirrorURL, Error: "no rows parsed from any source"}
	}
	return s.persistRows(rows, s.cfg.MirrorURL, m.name())
}

// fetchPrimary walks the candidate primary paths and returns the first
// non-trivially-sized body.
func (s *Service) fetchPrimary(ctx context.Context) (string, string, bool) {
	for _, u := range s.cfg.PrimaryURLs {
		body, status, err := s.fetcher.Fetch(ctx, u)
		if err != nil {
			s.log.Warnf("backfill: primary %s failed (status %d): %v", u, status, err)
			continue
		}
		if len(body) <= minUsefulBodySize {
			s.log.Debugf("backfill: primary %s returned trivial body (%d bytes)", u, len(body))
			continue
		}
		return body, u, true
	}
	return "", "", false
}

// persistRows dedupes (first occurrence wins), normalizes, sorts by period
// and bulk ignore-upserts. Rows an existing period already covers count as
// parsed but not inserted.
func (s *Service) persistRows(rows []row, source, strategyName string) BackfillResult {
	seen := make(map[int64]bool, len(rows))
	recs := make([]models.DrawRecord, 0, len(rows))
	for _, r := range rows {
		if seen[r.period] {
			continue
		}
		seen[r.period] = true
		rec := s.normalizeBackfill(r.period, r.tokens)
		if rec == nil {
			continue
		}
		if r.special > 0 {
			rec.SpecialNumber = r.special
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Period < recs[j].Period })

	result := BackfillResult{Source: source, Strategy: strategyName, Parsed: len(recs)}
	if len(recs) == 0 {
		result.Error = "no rows parsed from any source"
		return result
	}

	inserted, err := s.store.IgnoreUpsertMany(recs)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.OK = true
	result.Inserted = inserted
	s.log.Infof("backfill via %s: parsed %d, inserted %d", strategyName, result.Parsed, inserted)
	return result
}

// snapshot persists a fetched document verbatim so a zero-row run stays
// diagnosable. Failures only get logged.
func (s *Service) snapshot(name, body string) {
	if s.cfg.DataDir == "" {
		return
	}
	if err := os.MkdirAll(s.cfg.DataDir, 0o755); err != nil {
		s.log.Warnf("snapshot dir: %v", err)
		return
	}
	if err := os.WriteFile(filepath.Join(s.cfg.DataDir, name), []byte(body), 0o644); err != nil {
		s.log.Warnf("snapshot write: %v", err)
	}
}

// SnapshotMeta mirrors the debug endpoint payload of one snapshot attempt.
type SnapshotMeta struct {
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
	Length int    `json:"length,omitempty"`
	TookMS int64  `json:"took_ms,omitempty"`
	Saved  string `json:"saved,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SnapshotPath exposes where the primary snapshot lives (debug endpoints).
func (s *Service) SnapshotPath() string {
	return filepath.Join(s.cfg.DataDir, snapshotPrimary)
}

// DebugSnapshot fetches the first candidate primary page, persists it, and
// reports what happened. The fetch itself is the point, parsing is not.
func (s *Service) DebugSnapshot(ctx context.Context) ([]SnapshotMeta, bool) {
	if len(s.cfg.PrimaryURLs) == 0 {
		return []SnapshotMeta{{Error: "no primary URLs configured"}}, false
	}
	target := s.cfg.PrimaryURLs[0]

	start := time.Now()
	body, status, err := s.fetcher.Fetch(ctx, target)
	meta := SnapshotMeta{
		URL:    target,
		Status: status,
		Length: len(body),
		TookMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		meta.Error = err.Error()
		return []SnapshotMeta{meta}, false
	}
	if status == 200 && len(body) > minUsefulBodySize {
		s.snapshot(snapshotPrimary, body)
		meta.Saved = s.SnapshotPath()
	}
	return []SnapshotMeta{meta}, true
}
