package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const feedingColumns = `id, baby_id, start_time, end_time, type, amount, side, note, created_at`

func scanFeeding(row scanner) (*FeedingRecord, error) {
	r := &FeedingRecord{}
	var start, created string
	var end sql.NullString
	var amount, side sql.NullInt64
	if err := row.Scan(&r.ID, &r.BabyID, &start, &end, &r.Type, &amount, &side, &r.Note, &created); err != nil {
		return nil, err
	}
	r.StartTime = parseTS(start)
	r.EndTime = parseNullTS(end)
	r.Amount = intPtr[int](amount)
	r.Side = intPtr[Side](side)
	r.CreatedAt = parseTS(created)
	return r, nil
}

func (s *Store) InsertFeeding(r FeedingRecord) (*FeedingRecord, error) {
	res, err := s.db.Exec(
		`INSERT INTO feeding_records (baby_id, start_time, end_time, type, amount, side, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.BabyID, ts(r.StartTime), nullTS(r.EndTime), r.Type, nullInt(r.Amount), nullInt(r.Side), r.Note, createdAt(r.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert feeding: %w", err)
	}
	id, _ := res.LastInsertId()
	s.changes.publish(CategoryFeeding.table())
	return s.GetFeeding(id)
}

func (s *Store) GetFeeding(id int64) (*FeedingRecord, error) {
	r, err := scanFeeding(s.db.QueryRow(`SELECT `+feedingColumns+` FROM feeding_records WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get feeding %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get feeding %d: %w", id, err)
	}
	return r, nil
}

func (s *Store) UpdateFeeding(r FeedingRecord) error {
	res, err := s.db.Exec(
		`UPDATE feeding_records SET baby_id = ?, start_time = ?, end_time = ?, type = ?, amount = ?, side = ?, note = ?
		 WHERE id = ?`,
		r.BabyID, ts(r.StartTime), nullTS(r.EndTime), r.Type, nullInt(r.Amount), nullInt(r.Side), r.Note, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update feeding %d: %w", r.ID, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("update feeding %d: %w", r.ID, err)
	}
	s.changes.publish(CategoryFeeding.table())
	return nil
}

func (s *Store) DeleteFeeding(id int64) error {
	return s.deleteRecord(CategoryFeeding, id)
}

// ListFeedings returns all of a baby's feedings, newest first.
func (s *Store) ListFeedings(babyID int64) ([]FeedingRecord, error) {
	return s.queryFeedings(
		`SELECT `+feedingColumns+` FROM feeding_records WHERE baby_id = ? ORDER BY start_time DESC, id DESC`, babyID,
	)
}

// ListFeedingsRange returns feedings whose start lies in [from, to], newest first.
func (s *Store) ListFeedingsRange(babyID int64, from, to time.Time) ([]FeedingRecord, error) {
	return s.queryFeedings(
		`SELECT `+feedingColumns+` FROM feeding_records
		 WHERE baby_id = ? AND start_time BETWEEN ? AND ?
		 ORDER BY start_time DESC, id DESC`,
		babyID, ts(from), ts(to),
	)
}

// LatestFeeding returns the most recent feeding, or nil when there is none.
func (s *Store) LatestFeeding(babyID int64) (*FeedingRecord, error) {
	r, err := scanFeeding(s.db.QueryRow(
		`SELECT `+feedingColumns+` FROM feeding_records WHERE baby_id = ? ORDER BY start_time DESC, id DESC LIMIT 1`, babyID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest feeding: %w", err)
	}
	return r, nil
}

// ActiveFeeding returns the feeding that has not been stopped yet, or nil.
func (s *Store) ActiveFeeding(babyID int64) (*FeedingRecord, error) {
	r, err := scanFeeding(s.db.QueryRow(
		`SELECT `+feedingColumns+` FROM feeding_records WHERE baby_id = ? AND end_time IS NULL ORDER BY id DESC LIMIT 1`, babyID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active feeding: %w", err)
	}
	return r, nil
}

func (s *Store) WatchFeedings(ctx context.Context, babyID int64) <-chan Snapshot[[]FeedingRecord] {
	return watch(ctx, s, func() ([]FeedingRecord, error) {
		return s.ListFeedings(babyID)
	}, CategoryFeeding.table())
}

func (s *Store) WatchFeedingsRange(ctx context.Context, babyID int64, from, to time.Time) <-chan Snapshot[[]FeedingRecord] {
	return watch(ctx, s, func() ([]FeedingRecord, error) {
		return s.ListFeedingsRange(babyID, from, to)
	}, CategoryFeeding.table())
}

func (s *Store) queryFeedings(query string, args ...any) ([]FeedingRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feedings: %w", err)
	}
	defer rows.Close()

	var out []FeedingRecord
	for rows.Next() {
		r, err := scanFeeding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// deleteRecord removes one row from a category table.
func (s *Store) deleteRecord(c Category, id int64) error {
	res, err := s.db.Exec(`DELETE FROM `+c.table()+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", c, id, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("delete %s %d: %w", c, id, err)
	}
	s.changes.publish(c.table())
	return nil
}
