package store

import (
	"database/sql"
	"time"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nullTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return ts(*t)
}

func parseTS(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseNullTS(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTS(s.String)
	return &t
}

func nullInt[T ~int](v *T) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func intPtr[T ~int](v sql.NullInt64) *T {
	if !v.Valid {
		return nil
	}
	out := T(v.Int64)
	return &out
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	out := v.Float64
	return &out
}

// createdAt fills in a zero creation time with now.
func createdAt(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return ts(t)
}

// affected maps a zero-row update or delete onto ErrNotFound.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
