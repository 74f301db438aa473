package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const medicineColumns = `id, baby_id, time, name, dosage, unit, reminder_time, note, created_at`

func scanMedicine(row scanner) (*MedicineRecord, error) {
	r := &MedicineRecord{}
	var at, created string
	var reminder sql.NullString
	if err := row.Scan(&r.ID, &r.BabyID, &at, &r.Name, &r.Dosage, &r.Unit, &reminder, &r.Note, &created); err != nil {
		return nil, err
	}
	r.Time = parseTS(at)
	r.ReminderTime = parseNullTS(reminder)
	r.CreatedAt = parseTS(created)
	return r, nil
}

func (s *Store) InsertMedicine(r MedicineRecord) (*MedicineRecord, error) {
	res, err := s.db.Exec(
		`INSERT INTO medicine_records (baby_id, time, name, dosage, unit, reminder_time, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.BabyID, ts(r.Time), r.Name, r.Dosage, r.Unit, nullTS(r.ReminderTime), r.Note, createdAt(r.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert medicine: %w", err)
	}
	id, _ := res.LastInsertId()
	s.changes.publish(CategoryMedicine.table())
	return s.GetMedicine(id)
}

func (s *Store) GetMedicine(id int64) (*MedicineRecord, error) {
	r, err := scanMedicine(s.db.QueryRow(`SELECT `+medicineColumns+` FROM medicine_records WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get medicine %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get medicine %d: %w", id, err)
	}
	return r, nil
}

func (s *Store) UpdateMedicine(r MedicineRecord) error {
	res, err := s.db.Exec(
		`UPDATE medicine_records SET baby_id = ?, time = ?, name = ?, dosage = ?, unit = ?, reminder_time = ?, note = ?
		 WHERE id = ?`,
		r.BabyID, ts(r.Time), r.Name, r.Dosage, r.Unit, nullTS(r.ReminderTime), r.Note, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update medicine %d: %w", r.ID, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("update medicine %d: %w", r.ID, err)
	}
	s.changes.publish(CategoryMedicine.table())
	return nil
}

func (s *Store) DeleteMedicine(id int64) error {
	return s.deleteRecord(CategoryMedicine, id)
}

func (s *Store) ListMedicines(babyID int64) ([]MedicineRecord, error) {
	return s.queryMedicines(
		`SELECT `+medicineColumns+` FROM medicine_records WHERE baby_id = ? ORDER BY time DESC, id DESC`, babyID,
	)
}

func (s *Store) ListMedicinesRange(babyID int64, from, to time.Time) ([]MedicineRecord, error) {
	return s.queryMedicines(
		`SELECT `+medicineColumns+` FROM medicine_records
		 WHERE baby_id = ? AND time BETWEEN ? AND ?
		 ORDER BY time DESC, id DESC`,
		babyID, ts(from), ts(to),
	)
}

// DueMedicineReminders returns doses of any baby whose reminder time falls in
// (from, to], oldest reminder first.
func (s *Store) DueMedicineReminders(from, to time.Time) ([]MedicineRecord, error) {
	return s.queryMedicines(
		`SELECT `+medicineColumns+` FROM medicine_records
		 WHERE reminder_time > ? AND reminder_time <= ?
		 ORDER BY reminder_time, id`,
		ts(from), ts(to),
	)
}

func (s *Store) WatchMedicines(ctx context.Context, babyID int64) <-chan Snapshot[[]MedicineRecord] {
	return watch(ctx, s, func() ([]MedicineRecord, error) {
		return s.ListMedicines(babyID)
	}, CategoryMedicine.table())
}

func (s *Store) WatchMedicinesRange(ctx context.Context, babyID int64, from, to time.Time) <-chan Snapshot[[]MedicineRecord] {
	return watch(ctx, s, func() ([]MedicineRecord, error) {
		return s.ListMedicinesRange(babyID, from, to)
	}, CategoryMedicine.table())
}

func (s *Store) queryMedicines(query string, args ...any) ([]MedicineRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	defer rows.Close()

	var out []MedicineRecord
	for rows.Next() {
		r, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
