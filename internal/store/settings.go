package store

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	keyDarkMode         = "dark_mode"
	keyNotifications    = "notifications_enabled"
	keyFeedingInterval  = "feeding_interval"
	keyFeedingReminder  = "feeding_reminder_enabled"
	keySleepReminder    = "sleep_reminder_enabled"
	keyDiaperReminder   = "diaper_reminder_enabled"
	keyMedicineReminder = "medicine_reminder_enabled"
	keyQuietHours       = "quiet_hours_enabled"
	keyQuietStart       = "quiet_hours_start"
	keyQuietEnd         = "quiet_hours_end"
	keyCurrentBaby      = "current_baby_id"
	keyLastBackup       = "last_backup_time"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	s.changes.publish("settings")
	return nil
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// Clock is a time of day in minutes after midnight.
type Clock int

func NewClock(hour, minute int) Clock { return Clock(hour*60 + minute) }

// ParseClock reads "HH:MM".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return NewClock(t.Hour(), t.Minute()), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// ClockOf returns the clock reading of t in t's location.
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

// Preferences is the typed view over the settings table.
type Preferences struct {
	DarkMode             bool
	NotificationsEnabled bool
	FeedingInterval      time.Duration
	FeedingReminder      bool
	SleepReminder        bool
	DiaperReminder       bool
	MedicineReminder     bool
	QuietHoursEnabled    bool
	QuietStart           Clock
	QuietEnd             Clock
	CurrentBabyID        *int64
	LastBackup           *time.Time
}

// DefaultPreferences returns the values used for unset or unreadable keys.
func DefaultPreferences() Preferences {
	return Preferences{
		NotificationsEnabled: true,
		FeedingInterval:      180 * time.Minute,
		FeedingReminder:      true,
		SleepReminder:        true,
		DiaperReminder:       true,
		MedicineReminder:     true,
		QuietHoursEnabled:    true,
		QuietStart:           NewClock(22, 0),
		QuietEnd:             NewClock(6, 0),
	}
}

func (s *Store) Preferences() (Preferences, error) {
	p := DefaultPreferences()
	settings, err := s.GetAllSettings()
	if err != nil {
		return p, err
	}

	boolean := func(dst *bool, v string) {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
	clock := func(dst *Clock, v string) {
		if c, err := ParseClock(v); err == nil {
			*dst = c
		}
	}

	for _, kv := range settings {
		switch kv.Key {
		case keyDarkMode:
			boolean(&p.DarkMode, kv.Value)
		case keyNotifications:
			boolean(&p.NotificationsEnabled, kv.Value)
		case keyFeedingInterval:
			if m, err := strconv.Atoi(kv.Value); err == nil && m > 0 {
				p.FeedingInterval = time.Duration(m) * time.Minute
			}
		case keyFeedingReminder:
			boolean(&p.FeedingReminder, kv.Value)
		case keySleepReminder:
			boolean(&p.SleepReminder, kv.Value)
		case keyDiaperReminder:
			boolean(&p.DiaperReminder, kv.Value)
		case keyMedicineReminder:
			boolean(&p.MedicineReminder, kv.Value)
		case keyQuietHours:
			boolean(&p.QuietHoursEnabled, kv.Value)
		case keyQuietStart:
			clock(&p.QuietStart, kv.Value)
		case keyQuietEnd:
			clock(&p.QuietEnd, kv.Value)
		case keyCurrentBaby:
			if id, err := strconv.ParseInt(kv.Value, 10, 64); err == nil {
				p.CurrentBabyID = &id
			}
		case keyLastBackup:
			if t, err := time.Parse(time.RFC3339, kv.Value); err == nil {
				p.LastBackup = &t
			}
		}
	}
	return p, nil
}

// SavePreferences writes every preference. The current baby is owned by
// SetCurrentBaby and is not written here.
func (s *Store) SavePreferences(p Preferences) error {
	values := map[string]string{
		keyDarkMode:         strconv.FormatBool(p.DarkMode),
		keyNotifications:    strconv.FormatBool(p.NotificationsEnabled),
		keyFeedingInterval:  strconv.Itoa(int(p.FeedingInterval / time.Minute)),
		keyFeedingReminder:  strconv.FormatBool(p.FeedingReminder),
		keySleepReminder:    strconv.FormatBool(p.SleepReminder),
		keyDiaperReminder:   strconv.FormatBool(p.DiaperReminder),
		keyMedicineReminder: strconv.FormatBool(p.MedicineReminder),
		keyQuietHours:       strconv.FormatBool(p.QuietHoursEnabled),
		keyQuietStart:       p.QuietStart.String(),
		keyQuietEnd:         p.QuietEnd.String(),
	}
	if p.LastBackup != nil {
		values[keyLastBackup] = ts(*p.LastBackup)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for k, v := range values {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v,
		); err != nil {
			return fmt.Errorf("save %q: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.changes.publish("settings")
	return nil
}

// MarkBackup records t as the last successful export.
func (s *Store) MarkBackup(t time.Time) error {
	return s.SetSetting(keyLastBackup, ts(t))
}

func (s *Store) WatchPreferences(ctx context.Context) <-chan Snapshot[Preferences] {
	return watch(ctx, s, s.Preferences, "settings")
}
