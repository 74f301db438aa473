package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const waterColumns = `id, baby_id, time, amount, temperature, note, created_at`

func scanWater(row scanner) (*WaterRecord, error) {
	r := &WaterRecord{}
	var at, created string
	if err := row.Scan(&r.ID, &r.BabyID, &at, &r.Amount, &r.Temperature, &r.Note, &created); err != nil {
		return nil, err
	}
	r.Time = parseTS(at)
	r.CreatedAt = parseTS(created)
	return r, nil
}

func (s *Store) InsertWater(r WaterRecord) (*WaterRecord, error) {
	res, err := s.db.Exec(
		`INSERT INTO water_records (baby_id, time, amount, temperature, note, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.BabyID, ts(r.Time), r.Amount, r.Temperature, r.Note, createdAt(r.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert water: %w", err)
	}
	id, _ := res.LastInsertId()
	s.changes.publish(CategoryWater.table())
	return s.GetWater(id)
}

func (s *Store) GetWater(id int64) (*WaterRecord, error) {
	r, err := scanWater(s.db.QueryRow(`SELECT `+waterColumns+` FROM water_records WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get water %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get water %d: %w", id, err)
	}
	return r, nil
}

func (s *Store) UpdateWater(r WaterRecord) error {
	res, err := s.db.Exec(
		`UPDATE water_records SET baby_id = ?, time = ?, amount = ?, temperature = ?, note = ? WHERE id = ?`,
		r.BabyID, ts(r.Time), r.Amount, r.Temperature, r.Note, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update water %d: %w", r.ID, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("update water %d: %w", r.ID, err)
	}
	s.changes.publish(CategoryWater.table())
	return nil
}

func (s *Store) DeleteWater(id int64) error {
	return s.deleteRecord(CategoryWater, id)
}

func (s *Store) ListWater(babyID int64) ([]WaterRecord, error) {
	return s.queryWater(
		`SELECT `+waterColumns+` FROM water_records WHERE baby_id = ? ORDER BY time DESC, id DESC`, babyID,
	)
}

func (s *Store) ListWaterRange(babyID int64, from, to time.Time) ([]WaterRecord, error) {
	return s.queryWater(
		`SELECT `+waterColumns+` FROM water_records
		 WHERE baby_id = ? AND time BETWEEN ? AND ?
		 ORDER BY time DESC, id DESC`,
		babyID, ts(from), ts(to),
	)
}

func (s *Store) WatchWater(ctx context.Context, babyID int64) <-chan Snapshot[[]WaterRecord] {
	return watch(ctx, s, func() ([]WaterRecord, error) {
		return s.ListWater(babyID)
	}, CategoryWater.table())
}

func (s *Store) WatchWaterRange(ctx context.Context, babyID int64, from, to time.Time) <-chan Snapshot[[]WaterRecord] {
	return watch(ctx, s, func() ([]WaterRecord, error) {
		return s.ListWaterRange(babyID, from, to)
	}, CategoryWater.table())
}

func (s *Store) queryWater(query string, args ...any) ([]WaterRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list water: %w", err)
	}
	defer rows.Close()

	var out []WaterRecord
	for rows.Next() {
		r, err := scanWater(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
