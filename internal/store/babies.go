package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

const babyColumns = `id, name, gender, birthday, avatar, created_at, is_selected`

func scanBaby(row scanner) (*Baby, error) {
	b := &Baby{}
	var birthday, created string
	var selected int
	if err := row.Scan(&b.ID, &b.Name, &b.Gender, &birthday, &b.Avatar, &created, &selected); err != nil {
		return nil, err
	}
	b.Birthday = parseTS(birthday)
	b.CreatedAt = parseTS(created)
	b.IsSelected = selected == 1
	return b, nil
}

func (s *Store) CreateBaby(b Baby) (*Baby, error) {
	res, err := s.db.Exec(
		`INSERT INTO babies (name, gender, birthday, avatar, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.Name, b.Gender, ts(b.Birthday), b.Avatar, createdAt(b.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert baby: %w", err)
	}
	id, _ := res.LastInsertId()
	s.changes.publish("babies")
	return s.GetBaby(id)
}

func (s *Store) GetBaby(id int64) (*Baby, error) {
	b, err := scanBaby(s.db.QueryRow(`SELECT `+babyColumns+` FROM babies WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get baby %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get baby %d: %w", id, err)
	}
	return b, nil
}

// ListBabies returns every profile, newest first.
func (s *Store) ListBabies() ([]Baby, error) {
	rows, err := s.db.Query(`SELECT ` + babyColumns + ` FROM babies ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list babies: %w", err)
	}
	defer rows.Close()

	var babies []Baby
	for rows.Next() {
		b, err := scanBaby(rows)
		if err != nil {
			return nil, err
		}
		babies = append(babies, *b)
	}
	return babies, rows.Err()
}

// UpdateBaby rewrites the profile fields. The selection flag is left alone;
// use SetCurrentBaby to move it.
func (s *Store) UpdateBaby(b Baby) error {
	res, err := s.db.Exec(
		`UPDATE babies SET name = ?, gender = ?, birthday = ?, avatar = ? WHERE id = ?`,
		b.Name, b.Gender, ts(b.Birthday), b.Avatar, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update baby %d: %w", b.ID, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("update baby %d: %w", b.ID, err)
	}
	s.changes.publish("babies")
	return nil
}

// DeleteBaby removes a profile and, through the foreign keys, all of its
// records.
func (s *Store) DeleteBaby(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM babies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete baby %d: %w", id, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("delete baby %d: %w", id, err)
	}
	if _, err := tx.Exec(
		`DELETE FROM settings WHERE key = 'current_baby_id' AND value = ?`, strconv.FormatInt(id, 10),
	); err != nil {
		return fmt.Errorf("clear current baby: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.changes.publish(append(allTables(), "settings")...)
	return nil
}

// SetCurrentBaby marks id as the only selected profile. The flag is cleared on
// every row and then set on the target inside one transaction.
func (s *Store) SetCurrentBaby(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE babies SET is_selected = 0`); err != nil {
		return fmt.Errorf("clear selection: %w", err)
	}
	res, err := tx.Exec(`UPDATE babies SET is_selected = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("select baby %d: %w", id, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("select baby %d: %w", id, err)
	}
	if _, err := tx.Exec(
		`INSERT INTO settings (key, value) VALUES ('current_baby_id', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.FormatInt(id, 10),
	); err != nil {
		return fmt.Errorf("record current baby: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.changes.publish("babies", "settings")
	return nil
}

// CurrentBaby returns the selected profile, or nil when none is selected.
func (s *Store) CurrentBaby() (*Baby, error) {
	b, err := scanBaby(s.db.QueryRow(`SELECT ` + babyColumns + ` FROM babies WHERE is_selected = 1 LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get current baby: %w", err)
	}
	return b, nil
}

func (s *Store) WatchBabies(ctx context.Context) <-chan Snapshot[[]Baby] {
	return watch(ctx, s, s.ListBabies, "babies")
}

func (s *Store) WatchCurrentBaby(ctx context.Context) <-chan Snapshot[*Baby] {
	return watch(ctx, s, s.CurrentBaby, "babies")
}
