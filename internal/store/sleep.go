package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sleepColumns = `id, baby_id, start_time, end_time, quality, note, created_at`

func scanSleep(row scanner) (*SleepRecord, error) {
	r := &SleepRecord{}
	var start, created string
	var end sql.NullString
	var quality sql.NullInt64
	if err := row.Scan(&r.ID, &r.BabyID, &start, &end, &quality, &r.Note, &created); err != nil {
		return nil, err
	}
	r.StartTime = parseTS(start)
	r.EndTime = parseNullTS(end)
	r.Quality = intPtr[SleepQuality](quality)
	r.CreatedAt = parseTS(created)
	return r, nil
}

func (s *Store) InsertSleep(r SleepRecord) (*SleepRecord, error) {
	res, err := s.db.Exec(
		`INSERT INTO sleep_records (baby_id, start_time, end_time, quality, note, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.BabyID, ts(r.StartTime), nullTS(r.EndTime), nullInt(r.Quality), r.Note, createdAt(r.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert sleep: %w", err)
	}
	id, _ := res.LastInsertId()
	s.changes.publish(CategorySleep.table())
	return s.GetSleep(id)
}

func (s *Store) GetSleep(id int64) (*SleepRecord, error) {
	r, err := scanSleep(s.db.QueryRow(`SELECT `+sleepColumns+` FROM sleep_records WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get sleep %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get sleep %d: %w", id, err)
	}
	return r, nil
}

func (s *Store) UpdateSleep(r SleepRecord) error {
	res, err := s.db.Exec(
		`UPDATE sleep_records SET baby_id = ?, start_time = ?, end_time = ?, quality = ?, note = ? WHERE id = ?`,
		r.BabyID, ts(r.StartTime), nullTS(r.EndTime), nullInt(r.Quality), r.Note, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update sleep %d: %w", r.ID, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("update sleep %d: %w", r.ID, err)
	}
	s.changes.publish(CategorySleep.table())
	return nil
}

func (s *Store) DeleteSleep(id int64) error {
	return s.deleteRecord(CategorySleep, id)
}

func (s *Store) ListSleeps(babyID int64) ([]SleepRecord, error) {
	return s.querySleeps(
		`SELECT `+sleepColumns+` FROM sleep_records WHERE baby_id = ? ORDER BY start_time DESC, id DESC`, babyID,
	)
}

func (s *Store) ListSleepsRange(babyID int64, from, to time.Time) ([]SleepRecord, error) {
	return s.querySleeps(
		`SELECT `+sleepColumns+` FROM sleep_records
		 WHERE baby_id = ? AND start_time BETWEEN ? AND ?
		 ORDER BY start_time DESC, id DESC`,
		babyID, ts(from), ts(to),
	)
}

// ActiveSleep returns the sleep that has not ended yet, or nil.
func (s *Store) ActiveSleep(babyID int64) (*SleepRecord, error) {
	r, err := scanSleep(s.db.QueryRow(
		`SELECT `+sleepColumns+` FROM sleep_records WHERE baby_id = ? AND end_time IS NULL ORDER BY id DESC LIMIT 1`, babyID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active sleep: %w", err)
	}
	return r, nil
}

func (s *Store) WatchSleeps(ctx context.Context, babyID int64) <-chan Snapshot[[]SleepRecord] {
	return watch(ctx, s, func() ([]SleepRecord, error) {
		return s.ListSleeps(babyID)
	}, CategorySleep.table())
}

func (s *Store) WatchSleepsRange(ctx context.Context, babyID int64, from, to time.Time) <-chan Snapshot[[]SleepRecord] {
	return watch(ctx, s, func() ([]SleepRecord, error) {
		return s.ListSleepsRange(babyID, from, to)
	}, CategorySleep.table())
}

func (s *Store) querySleeps(query string, args ...any) ([]SleepRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sleeps: %w", err)
	}
	defer rows.Close()

	var out []SleepRecord
	for rows.Next() {
		r, err := scanSleep(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
