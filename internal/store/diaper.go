package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const diaperColumns = `id, baby_id, time, type, color, amount, note, created_at`

func scanDiaper(row scanner) (*DiaperRecord, error) {
	r := &DiaperRecord{}
	var at, created string
	var color, amount sql.NullInt64
	if err := row.Scan(&r.ID, &r.BabyID, &at, &r.Type, &color, &amount, &r.Note, &created); err != nil {
		return nil, err
	}
	r.Time = parseTS(at)
	r.Color = intPtr[int](color)
	r.Amount = intPtr[int](amount)
	r.CreatedAt = parseTS(created)
	return r, nil
}

func (s *Store) InsertDiaper(r DiaperRecord) (*DiaperRecord, error) {
	res, err := s.db.Exec(
		`INSERT INTO diaper_records (baby_id, time, type, color, amount, note, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.BabyID, ts(r.Time), r.Type, nullInt(r.Color), nullInt(r.Amount), r.Note, createdAt(r.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert diaper: %w", err)
	}
	id, _ := res.LastInsertId()
	s.changes.publish(CategoryDiaper.table())
	return s.GetDiaper(id)
}

func (s *Store) GetDiaper(id int64) (*DiaperRecord, error) {
	r, err := scanDiaper(s.db.QueryRow(`SELECT `+diaperColumns+` FROM diaper_records WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get diaper %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get diaper %d: %w", id, err)
	}
	return r, nil
}

func (s *Store) UpdateDiaper(r DiaperRecord) error {
	res, err := s.db.Exec(
		`UPDATE diaper_records SET baby_id = ?, time = ?, type = ?, color = ?, amount = ?, note = ? WHERE id = ?`,
		r.BabyID, ts(r.Time), r.Type, nullInt(r.Color), nullInt(r.Amount), r.Note, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update diaper %d: %w", r.ID, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("update diaper %d: %w", r.ID, err)
	}
	s.changes.publish(CategoryDiaper.table())
	return nil
}

func (s *Store) DeleteDiaper(id int64) error {
	return s.deleteRecord(CategoryDiaper, id)
}

func (s *Store) ListDiapers(babyID int64) ([]DiaperRecord, error) {
	return s.queryDiapers(
		`SELECT `+diaperColumns+` FROM diaper_records WHERE baby_id = ? ORDER BY time DESC, id DESC`, babyID,
	)
}

func (s *Store) ListDiapersRange(babyID int64, from, to time.Time) ([]DiaperRecord, error) {
	return s.queryDiapers(
		`SELECT `+diaperColumns+` FROM diaper_records
		 WHERE baby_id = ? AND time BETWEEN ? AND ?
		 ORDER BY time DESC, id DESC`,
		babyID, ts(from), ts(to),
	)
}

func (s *Store) WatchDiapers(ctx context.Context, babyID int64) <-chan Snapshot[[]DiaperRecord] {
	return watch(ctx, s, func() ([]DiaperRecord, error) {
		return s.ListDiapers(babyID)
	}, CategoryDiaper.table())
}

func (s *Store) WatchDiapersRange(ctx context.Context, babyID int64, from, to time.Time) <-chan Snapshot[[]DiaperRecord] {
	return watch(ctx, s, func() ([]DiaperRecord, error) {
		return s.ListDiapersRange(babyID, from, to)
	}, CategoryDiaper.table())
}

func (s *Store) queryDiapers(query string, args ...any) ([]DiaperRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list diapers: %w", err)
	}
	defer rows.Close()

	var out []DiaperRecord
	for rows.Next() {
		r, err := scanDiaper(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
