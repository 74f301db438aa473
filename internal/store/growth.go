package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const growthColumns = `id, baby_id, time, height, weight, head_circumference, milestone, note, created_at`

func scanGrowth(row scanner) (*GrowthRecord, error) {
	r := &GrowthRecord{}
	var at, created string
	var height, weight, head sql.NullFloat64
	if err := row.Scan(&r.ID, &r.BabyID, &at, &height, &weight, &head, &r.Milestone, &r.Note, &created); err != nil {
		return nil, err
	}
	r.Time = parseTS(at)
	r.Height = floatPtr(height)
	r.Weight = floatPtr(weight)
	r.HeadCircumference = floatPtr(head)
	r.CreatedAt = parseTS(created)
	return r, nil
}

func (s *Store) InsertGrowth(r GrowthRecord) (*GrowthRecord, error) {
	res, err := s.db.Exec(
		`INSERT INTO growth_records (baby_id, time, height, weight, head_circumference, milestone, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.BabyID, ts(r.Time), nullFloat(r.Height), nullFloat(r.Weight), nullFloat(r.HeadCircumference),
		r.Milestone, r.Note, createdAt(r.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert growth: %w", err)
	}
	id, _ := res.LastInsertId()
	s.changes.publish(CategoryGrowth.table())
	return s.GetGrowth(id)
}

func (s *Store) GetGrowth(id int64) (*GrowthRecord, error) {
	r, err := scanGrowth(s.db.QueryRow(`SELECT `+growthColumns+` FROM growth_records WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get growth %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get growth %d: %w", id, err)
	}
	return r, nil
}

func (s *Store) UpdateGrowth(r GrowthRecord) error {
	res, err := s.db.Exec(
		`UPDATE growth_records SET baby_id = ?, time = ?, height = ?, weight = ?, head_circumference = ?, milestone = ?, note = ?
		 WHERE id = ?`,
		r.BabyID, ts(r.Time), nullFloat(r.Height), nullFloat(r.Weight), nullFloat(r.HeadCircumference),
		r.Milestone, r.Note, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update growth %d: %w", r.ID, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("update growth %d: %w", r.ID, err)
	}
	s.changes.publish(CategoryGrowth.table())
	return nil
}

func (s *Store) DeleteGrowth(id int64) error {
	return s.deleteRecord(CategoryGrowth, id)
}

func (s *Store) ListGrowth(babyID int64) ([]GrowthRecord, error) {
	return s.queryGrowth(
		`SELECT `+growthColumns+` FROM growth_records WHERE baby_id = ? ORDER BY time DESC, id DESC`, babyID,
	)
}

func (s *Store) ListGrowthRange(babyID int64, from, to time.Time) ([]GrowthRecord, error) {
	return s.queryGrowth(
		`SELECT `+growthColumns+` FROM growth_records
		 WHERE baby_id = ? AND time BETWEEN ? AND ?
		 ORDER BY time DESC, id DESC`,
		babyID, ts(from), ts(to),
	)
}

// LatestGrowth returns the newest measurement, or nil when there is none.
func (s *Store) LatestGrowth(babyID int64) (*GrowthRecord, error) {
	r, err := scanGrowth(s.db.QueryRow(
		`SELECT `+growthColumns+` FROM growth_records WHERE baby_id = ? ORDER BY time DESC, id DESC LIMIT 1`, babyID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest growth: %w", err)
	}
	return r, nil
}

func (s *Store) WatchGrowth(ctx context.Context, babyID int64) <-chan Snapshot[[]GrowthRecord] {
	return watch(ctx, s, func() ([]GrowthRecord, error) {
		return s.ListGrowth(babyID)
	}, CategoryGrowth.table())
}

func (s *Store) WatchGrowthRange(ctx context.Context, babyID int64, from, to time.Time) <-chan Snapshot[[]GrowthRecord] {
	return watch(ctx, s, func() ([]GrowthRecord, error) {
		return s.ListGrowthRange(babyID, from, to)
	}, CategoryGrowth.table())
}

func (s *Store) queryGrowth(query string, args ...any) ([]GrowthRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list growth: %w", err)
	}
	defer rows.Close()

	var out []GrowthRecord
	for rows.Next() {
		r, err := scanGrowth(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
