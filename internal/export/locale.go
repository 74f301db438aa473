package export

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"

	"github.com/sadopc/babylog/internal/store"
)

// Locale holds the section names, column headers and enum labels written
// into exported files.
type Locale struct {
	Tag      language.Tag
	Title    string
	Sections map[store.Category]string
	Headers  map[store.Category][]string

	FeedingTypes  []string
	Sides         []string
	Qualities     []string
	DiaperTypes   []string
	DiaperAmounts []string
	Temperatures  []string
}

var English = &Locale{
	Tag:   language.English,
	Title: "Baby Care Records",
	Sections: map[store.Category]string{
		store.CategoryFeeding:  "Feeding Records",
		store.CategorySleep:    "Sleep Records",
		store.CategoryDiaper:   "Diaper Records",
		store.CategoryMedicine: "Medicine Records",
		store.CategoryWater:    "Water Records",
		store.CategoryGrowth:   "Growth Records",
	},
	Headers: map[store.Category][]string{
		store.CategoryFeeding:  {"Start", "End", "Duration (min)", "Type", "Amount (ml)", "Side", "Note", "Created"},
		store.CategorySleep:    {"Start", "End", "Duration (min)", "Quality", "Note", "Created"},
		store.CategoryDiaper:   {"Time", "Type", "Color", "Amount", "Note", "Created"},
		store.CategoryMedicine: {"Time", "Medicine", "Dosage", "Unit", "Reminder", "Note", "Created"},
		store.CategoryWater:    {"Time", "Amount (ml)", "Temperature", "Note", "Created"},
		store.CategoryGrowth:   {"Time", "Height (cm)", "Weight (kg)", "Head (cm)", "Milestone", "Note", "Created"},
	},
	FeedingTypes:  []string{"Breast", "Bottle"},
	Sides:         []string{"Left", "Right"},
	Qualities:     []string{"Poor", "Fair", "Good"},
	DiaperTypes:   []string{"Wet", "Dirty", "Both"},
	DiaperAmounts: []string{"Small", "Medium", "Large"},
	Temperatures:  []string{"Room", "Warm", "Hot"},
}

var Chinese = &Locale{
	Tag:   language.Chinese,
	Title: "宝宝护理记录",
	Sections: map[store.Category]string{
		store.CategoryFeeding:  "喂奶记录",
		store.CategorySleep:    "睡眠记录",
		store.CategoryDiaper:   "换尿布记录",
		store.CategoryMedicine: "用药记录",
		store.CategoryWater:    "喝水记录",
		store.CategoryGrowth:   "生长记录",
	},
	Headers: map[store.Category][]string{
		store.CategoryFeeding:  {"开始时间", "结束时间", "时长(分钟)", "类型", "奶量(ml)", "哪侧", "备注", "创建时间"},
		store.CategorySleep:    {"开始时间", "结束时间", "时长(分钟)", "质量", "备注", "创建时间"},
		store.CategoryDiaper:   {"时间", "类型", "颜色", "量", "备注", "创建时间"},
		store.CategoryMedicine: {"时间", "药名", "剂量", "单位", "提醒时间", "备注", "创建时间"},
		store.CategoryWater:    {"时间", "水量(ml)", "温度", "备注", "创建时间"},
		store.CategoryGrowth:   {"时间", "身高(cm)", "体重(kg)", "头围(cm)", "里程碑", "备注", "创建时间"},
	},
	FeedingTypes:  []string{"亲喂", "瓶喂"},
	Sides:         []string{"左侧", "右侧"},
	Qualities:     []string{"差", "一般", "好"},
	DiaperTypes:   []string{"尿湿", "便便", "混合"},
	DiaperAmounts: []string{"少", "中", "多"},
	Temperatures:  []string{"常温", "温", "热"},
}

var locales = []*Locale{English, Chinese}

var matcher = language.NewMatcher([]language.Tag{English.Tag, Chinese.Tag})

// LocaleFor picks the closest supported locale for a BCP 47 tag, falling
// back to English.
func LocaleFor(tag string) *Locale {
	t, err := language.Parse(tag)
	if err != nil {
		return English
	}
	_, idx, conf := matcher.Match(t)
	if conf == language.No {
		return English
	}
	return locales[idx]
}

// NeedsUnicodeFont reports whether any label falls outside Latin-1, which
// the PDF writer's built-in fonts cannot draw.
func (l *Locale) NeedsUnicodeFont() bool {
	labels := []string{l.Title}
	for _, s := range l.Sections {
		labels = append(labels, s)
	}
	for _, h := range l.Headers {
		labels = append(labels, h...)
	}
	for _, set := range [][]string{l.FeedingTypes, l.Sides, l.Qualities, l.DiaperTypes, l.DiaperAmounts, l.Temperatures} {
		labels = append(labels, set...)
	}
	for _, s := range labels {
		for _, r := range s {
			if r > unicode.MaxLatin1 {
				return true
			}
		}
	}
	return false
}

// Marker returns the section marker row cell for a category.
func (l *Locale) Marker(c store.Category) string {
	return markerPrefix + l.Sections[c] + markerSuffix
}

const (
	markerPrefix = "=== "
	markerSuffix = " ==="
)

// sectionOf recognises a marker cell written by any locale.
func sectionOf(cell string) (store.Category, bool) {
	cell = strings.TrimSpace(cell)
	if !strings.HasPrefix(cell, "===") || !strings.HasSuffix(cell, "===") || len(cell) < 6 {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(cell, "==="), "==="))
	for _, l := range locales {
		for c, s := range l.Sections {
			if strings.EqualFold(s, name) {
				return c, true
			}
		}
	}
	return "", false
}

func label(labels []string, v int) string {
	if v >= 0 && v < len(labels) {
		return labels[v]
	}
	return strconv.Itoa(v)
}
