package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/babylog/internal/store"
)

type jsonExport struct {
	ExportedAt string                 `json:"exported_at"`
	Count      int                    `json:"count"`
	Counts     map[store.Category]int `json:"counts"`
	Feedings   []jsonFeeding          `json:"feedings,omitempty"`
	Sleeps     []jsonSleep            `json:"sleeps,omitempty"`
	Diapers    []jsonDiaper           `json:"diapers,omitempty"`
	Medicines  []jsonMedicine         `json:"medicines,omitempty"`
	Water      []jsonWater            `json:"water,omitempty"`
	Growth     []jsonGrowth           `json:"growth,omitempty"`
}

type jsonFeeding struct {
	ID          int64  `json:"id"`
	BabyID      int64  `json:"baby_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	DurationSec int64  `json:"duration_seconds,omitempty"`
	Type        string `json:"type"`
	AmountML    *int   `json:"amount_ml,omitempty"`
	Side        string `json:"side,omitempty"`
	Note        string `json:"note,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type jsonSleep struct {
	ID          int64  `json:"id"`
	BabyID      int64  `json:"baby_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	DurationSec int64  `json:"duration_seconds,omitempty"`
	Quality     string `json:"quality,omitempty"`
	Note        string `json:"note,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type jsonDiaper struct {
	ID        int64  `json:"id"`
	BabyID    int64  `json:"baby_id"`
	Time      string `json:"time"`
	Type      string `json:"type"`
	Color     *int   `json:"color,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

type jsonMedicine struct {
	ID           int64   `json:"id"`
	BabyID       int64   `json:"baby_id"`
	Time         string  `json:"time"`
	Name         string  `json:"name"`
	Dosage       float64 `json:"dosage"`
	Unit         string  `json:"unit"`
	ReminderTime string  `json:"reminder_time,omitempty"`
	Note         string  `json:"note,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

type jsonWater struct {
	ID          int64  `json:"id"`
	BabyID      int64  `json:"baby_id"`
	Time        string `json:"time"`
	AmountML    int    `json:"amount_ml"`
	Temperature string `json:"temperature"`
	Note        string `json:"note,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type jsonGrowth struct {
	ID                  int64    `json:"id"`
	BabyID              int64    `json:"baby_id"`
	Time                string   `json:"time"`
	HeightCM            *float64 `json:"height_cm,omitempty"`
	WeightKG            *float64 `json:"weight_kg,omitempty"`
	HeadCircumferenceCM *float64 `json:"head_circumference_cm,omitempty"`
	Milestone           string   `json:"milestone,omitempty"`
	Note                string   `json:"note,omitempty"`
	CreatedAt           string   `json:"created_at"`
}

func rfc(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.RFC3339)
}

func optRFC(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return rfc(*t, loc)
}

func seconds(start time.Time, end *time.Time) int64 {
	if end == nil {
		return 0
	}
	return int64(end.Sub(start).Seconds())
}

// WriteJSON writes an indented backup of data. Enum fields use the locale's
// labels; times are RFC 3339 in the configured location.
func WriteJSON(w io.Writer, data Data, opts Options) error {
	l, loc := opts.locale(), opts.location()
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      data.Total(),
		Counts:     make(map[store.Category]int),
	}
	for _, c := range store.Categories {
		export.Counts[c] = data.Count(c)
	}

	for _, r := range data.Feedings {
		export.Feedings = append(export.Feedings, jsonFeeding{
			ID:          r.ID,
			BabyID:      r.BabyID,
			StartTime:   rfc(r.StartTime, loc),
			EndTime:     optRFC(r.EndTime, loc),
			DurationSec: seconds(r.StartTime, r.EndTime),
			Type:        label(l.FeedingTypes, int(r.Type)),
			AmountML:    r.Amount,
			Side:        optLabel(l.Sides, r.Side),
			Note:        r.Note,
			CreatedAt:   rfc(r.CreatedAt, loc),
		})
	}
	for _, r := range data.Sleeps {
		export.Sleeps = append(export.Sleeps, jsonSleep{
			ID:          r.ID,
			BabyID:      r.BabyID,
			StartTime:   rfc(r.StartTime, loc),
			EndTime:     optRFC(r.EndTime, loc),
			DurationSec: seconds(r.StartTime, r.EndTime),
			Quality:     optLabel(l.Qualities, r.Quality),
			Note:        r.Note,
			CreatedAt:   rfc(r.CreatedAt, loc),
		})
	}
	for _, r := range data.Diapers {
		export.Diapers = append(export.Diapers, jsonDiaper{
			ID:        r.ID,
			BabyID:    r.BabyID,
			Time:      rfc(r.Time, loc),
			Type:      label(l.DiaperTypes, int(r.Type)),
			Color:     r.Color,
			Amount:    optLabel(l.DiaperAmounts, r.Amount),
			Note:      r.Note,
			CreatedAt: rfc(r.CreatedAt, loc),
		})
	}
	for _, r := range data.Medicines {
		export.Medicines = append(export.Medicines, jsonMedicine{
			ID:           r.ID,
			BabyID:       r.BabyID,
			Time:         rfc(r.Time, loc),
			Name:         r.Name,
			Dosage:       r.Dosage,
			Unit:         r.Unit,
			ReminderTime: optRFC(r.ReminderTime, loc),
			Note:         r.Note,
			CreatedAt:    rfc(r.CreatedAt, loc),
		})
	}
	for _, r := range data.Water {
		export.Water = append(export.Water, jsonWater{
			ID:          r.ID,
			BabyID:      r.BabyID,
			Time:        rfc(r.Time, loc),
			AmountML:    r.Amount,
			Temperature: label(l.Temperatures, int(r.Temperature)),
			Note:        r.Note,
			CreatedAt:   rfc(r.CreatedAt, loc),
		})
	}
	for _, r := range data.Growth {
		export.Growth = append(export.Growth, jsonGrowth{
			ID:                  r.ID,
			BabyID:              r.BabyID,
			Time:                rfc(r.Time, loc),
			HeightCM:            r.Height,
			WeightKG:            r.Weight,
			HeadCircumferenceCM: r.HeadCircumference,
			Milestone:           r.Milestone,
			Note:                r.Note,
			CreatedAt:           rfc(r.CreatedAt, loc),
		})
	}

	b, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	opts.report(1, 1)
	return nil
}

func ToJSON(path string, data Data, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	if err := WriteJSON(f, data, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close json file: %w", err)
	}
	return nil
}
