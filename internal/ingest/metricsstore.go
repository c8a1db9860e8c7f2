// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/admitlens/admitlens/internal/config"
	"github.com/admitlens/admitlens/internal/metrics"
	"github.com/admitlens/admitlens/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	metricsKeyPrefix = "metrics:"
)

// ErrRowNotFound is returned when no metrics row exists for a key.
var ErrRowNotFound = errors.New("metrics row not found")

// MetricsStore keeps one EngagementMetricsRow per (subject, session) in
// BadgerDB. Rows merge monotonically: the client reports running
// totals, so max-merge makes re-delivered heartbeats harmless.
type MetricsStore struct {
	db *badger.DB
}

// OpenMetricsStore opens the BadgerDB metrics store. InMemory is for
// tests and ephemeral deployments.
func OpenMetricsStore(cfg config.MetricsStoreConfig) (*MetricsStore, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	// Badger's own logger is too chatty for normal operation
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open metrics store: %w", err)
	}
	return &MetricsStore{db: db}, nil
}

func metricsKey(subjectID, sessionID string) []byte {
	return []byte(metricsKeyPrefix + subjectID + ":" + sessionID)
}

// Merge folds a session summary into the row for (subjectID,
// sessionID), creating it on first sight. Running totals merge by max;
// PagesViewed counts every merge, TotalVisits only the first one for
// the session. Returns the merged row.
func (s *MetricsStore) Merge(info *models.SessionInfo, now time.Time) (models.EngagementMetricsRow, error) {
	start := time.Now()
	var merged models.EngagementMetricsRow
	var regressed bool

	err := s.db.Update(func(txn *badger.Txn) error {
		key := metricsKey(info.SubjectID, info.SessionID)

		row := models.EngagementMetricsRow{
			SubjectID:    info.SubjectID,
			SessionID:    info.SessionID,
			FirstVisitAt: now,
		}
		newSession := true

		item, err := txn.Get(key)
		if err == nil {
			newSession = false
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			}); err != nil {
				return fmt.Errorf("decode metrics row: %w", err)
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get metrics row: %w", err)
		}

		if info.TimeOnPageSec < row.TimeOnPageSec ||
			info.MaxScrollDepth < row.MaxScrollDepth ||
			info.ClickCount < row.ClicksOnLinks {
			regressed = true
		}

		row.TimeOnPageSec = maxFloat(row.TimeOnPageSec, info.TimeOnPageSec)
		row.MaxScrollDepth = maxInt(row.MaxScrollDepth, info.MaxScrollDepth)
		row.ClicksOnLinks = maxInt(row.ClicksOnLinks, info.ClickCount)
		row.SectionViews = maxInt(row.SectionViews, info.SectionViews)
		row.PagesViewed++
		if newSession {
			row.TotalVisits++
		}
		row.LastVisitAt = now
		if info.DeviceInfo.UserAgent != "" {
			row.DeviceInfo = info.DeviceInfo
		}

		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode metrics row: %w", err)
		}
		merged = row
		return txn.Set(key, data)
	})
	if err != nil {
		return models.EngagementMetricsRow{}, err
	}

	metrics.RecordStoreMerge(regressed)
	metrics.RecordStoreOp("merge", time.Since(start))
	return merged, nil
}

// Row fetches a single (subject, session) row.
func (s *MetricsStore) Row(subjectID, sessionID string) (models.EngagementMetricsRow, error) {
	var row models.EngagementMetricsRow
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metricsKey(subjectID, sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRowNotFound
		}
		if err != nil {
			return fmt.Errorf("get metrics row: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &row)
		})
	})
	return row, err
}

// RowsForSubject returns all session rows for a subject.
func (s *MetricsStore) RowsForSubject(subjectID string) ([]models.EngagementMetricsRow, error) {
	start := time.Now()
	var rows []models.EngagementMetricsRow

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte(metricsKeyPrefix + subjectID + ":")
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var row models.EngagementMetricsRow
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			}); err != nil {
				return fmt.Errorf("decode metrics row: %w", err)
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordStoreOp("rows_for_subject", time.Since(start))
	return rows, nil
}

// Subjects lists per-subject activity rollups for the dashboard list,
// derived entirely from the metrics rows.
func (s *MetricsStore) Subjects() ([]models.SubjectActivity, error) {
	start := time.Now()
	bySubject := make(map[string]*models.SubjectActivity)
	var order []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte(metricsKeyPrefix)
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var row models.EngagementMetricsRow
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			}); err != nil {
				return fmt.Errorf("decode metrics row: %w", err)
			}

			activity, ok := bySubject[row.SubjectID]
			if !ok {
				activity = &models.SubjectActivity{SubjectID: row.SubjectID}
				bySubject[row.SubjectID] = activity
				order = append(order, row.SubjectID)
			}
			activity.Sessions++
			activity.TimeOnPageSec += row.TimeOnPageSec
			if row.LastVisitAt.After(activity.LastVisitAt) {
				activity.LastVisitAt = row.LastVisitAt
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]models.SubjectActivity, 0, len(order))
	for _, id := range order {
		result = append(result, *bySubject[id])
	}
	metrics.RecordStoreOp("subjects", time.Since(start))
	return result, nil
}

// SessionCount returns the number of stored session rows, used by the
// periodic dashboard stats broadcast.
func (s *MetricsStore) SessionCount() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte(metricsKeyPrefix)
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close closes the store.
func (s *MetricsStore) Close() error {
	return s.db.Close()
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
