package store

import (
	"context"
	"fmt"
	"time"
)

// DaySummary totals a baby's activity with primary timestamps in [from, to].
// Only finished sleeps contribute to SleepSeconds.
func (s *Store) DaySummary(babyID int64, from, to time.Time) (DaySummary, error) {
	var d DaySummary
	f, t := ts(from), ts(to)

	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(amount), 0)
		FROM feeding_records
		WHERE baby_id = ? AND start_time BETWEEN ? AND ?`, babyID, f, t,
	).Scan(&d.Feedings, &d.FeedingML)
	if err != nil {
		return d, fmt.Errorf("summary feedings: %w", err)
	}

	err = s.db.QueryRow(`
		SELECT COALESCE(SUM(strftime('%s', end_time) - strftime('%s', start_time)), 0)
		FROM sleep_records
		WHERE baby_id = ? AND end_time IS NOT NULL AND start_time BETWEEN ? AND ?`, babyID, f, t,
	).Scan(&d.SleepSeconds)
	if err != nil {
		return d, fmt.Errorf("summary sleep: %w", err)
	}

	err = s.db.QueryRow(`
		SELECT COALESCE(SUM(CASE WHEN type IN (0, 2) THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN type IN (1, 2) THEN 1 ELSE 0 END), 0)
		FROM diaper_records
		WHERE baby_id = ? AND time BETWEEN ? AND ?`, babyID, f, t,
	).Scan(&d.WetCount, &d.DirtyCount)
	if err != nil {
		return d, fmt.Errorf("summary diapers: %w", err)
	}

	err = s.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0) FROM water_records
		WHERE baby_id = ? AND time BETWEEN ? AND ?`, babyID, f, t,
	).Scan(&d.WaterML)
	if err != nil {
		return d, fmt.Errorf("summary water: %w", err)
	}

	err = s.db.QueryRow(`
		SELECT COUNT(*) FROM medicine_records
		WHERE baby_id = ? AND time BETWEEN ? AND ?`, babyID, f, t,
	).Scan(&d.Medicines)
	if err != nil {
		return d, fmt.Errorf("summary medicines: %w", err)
	}
	return d, nil
}

// WatchDaySummary re-totals whenever any record table changes.
func (s *Store) WatchDaySummary(ctx context.Context, babyID int64, from, to time.Time) <-chan Snapshot[DaySummary] {
	tables := make([]string, 0, len(Categories))
	for _, c := range Categories {
		tables = append(tables, c.table())
	}
	return watch(ctx, s, func() (DaySummary, error) {
		return s.DaySummary(babyID, from, to)
	}, tables...)
}

// DeleteAllRecords clears every category for one baby, keeping the profile.
func (s *Store) DeleteAllRecords(babyID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, c := range Categories {
		if _, err := tx.Exec(`DELETE FROM `+c.table()+` WHERE baby_id = ?`, babyID); err != nil {
			return fmt.Errorf("clear %s: %w", c, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.changes.publish(allTables()[1:]...)
	return nil
}
