package viewmodel

import (
	"time"

	"github.com/sadopc/babylog/internal/stats"
	"github.com/sadopc/babylog/internal/store"
)

// Event is a user intent. Each screen handles the events that concern it and
// ignores the rest.
type Event interface {
	event()
}

// SelectBaby makes a profile the current one. Every screen follows the
// current profile.
type SelectBaby struct{ ID int64 }

// Dismiss clears the last failure.
type Dismiss struct{}

// Babies

// EditBaby opens the profile dialog; a nil Baby starts a new profile.
type EditBaby struct{ Baby *store.Baby }

type DismissDialog struct{}

// SaveBaby creates the profile when ID is zero and updates it otherwise.
type SaveBaby struct{ Baby store.Baby }

type DeleteBaby struct{ ID int64 }

// Records

// SaveRecord inserts a record with a zero id and updates any other. A zero
// BabyID means the current profile.
type SaveRecord struct{ Record store.Record }

type DeleteRecord struct {
	Category store.Category
	ID       int64
}

type StartFeeding struct {
	Type store.FeedingType
	Side *store.Side
}

type StopFeeding struct{ Amount *int }

type StartSleep struct{}

type StopSleep struct{ Quality *store.SleepQuality }

// Statistics and growth

type SelectPeriod struct{ Period stats.Period }

type AddGrowth struct{ Record store.GrowthRecord }

type UpdateGrowth struct{ Record store.GrowthRecord }

type DeleteGrowth struct{ ID int64 }

// Settings

type SetDarkMode struct{ On bool }

type SetNotifications struct{ On bool }

type SetFeedingInterval struct{ Interval time.Duration }

// SetReminderEnabled toggles the reminder of one of feeding, sleep, diaper
// or medicine.
type SetReminderEnabled struct {
	Category store.Category
	On       bool
}

type SetQuietHours struct {
	Enabled    bool
	Start, End store.Clock
}

type Format int

const (
	FormatCSV Format = iota
	FormatPDF
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatJSON:
		return "json"
	}
	return "csv"
}

// ParseFormat accepts csv, pdf or json.
func ParseFormat(s string) (Format, bool) {
	for _, f := range []Format{FormatCSV, FormatPDF, FormatJSON} {
		if f.String() == s {
			return f, true
		}
	}
	return 0, false
}

// Export writes the current profile's records. An empty Categories list
// exports every category; charts apply to PDF only.
type Export struct {
	Format        Format
	Categories    []store.Category
	IncludeCharts bool
	Path          string
}

// Import reads a CSV export into the current profile.
type Import struct{ Path string }

// ClearData deletes every record of the current profile.
type ClearData struct{}

func (SelectBaby) event() {}
func (Dismiss) event() {}
func (EditBaby) event() {}
func (DismissDialog) event() {}
func (SaveBaby) event() {}
func (DeleteBaby) event() {}
func (SaveRecord) event() {}
func (DeleteRecord) event() {}
func (StartFeeding) event() {}
func (StopFeeding) event() {}
func (StartSleep) event() {}
func (StopSleep) event() {}
func (SelectPeriod) event() {}
func (AddGrowth) event() {}
func (UpdateGrowth) event() {}
func (DeleteGrowth) event() {}
func (SetDarkMode) event() {}
func (SetNotifications) event() {}
func (SetFeedingInterval) event() {}
func (SetReminderEnabled) event() {}
func (SetQuietHours) event() {}
func (Export) event() {}
func (Import) event() {}
func (ClearData) event() {}
