package model

import (
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// Locale maps canonical prayer names to the display strings used in
// notification texts.
type Locale struct {
	Prayers map[string]string `yaml:"prayers"`
}

var arabicPrayers = map[string]string{
	"fajr":    "الفجر",
	"dhuhr":   "الظهر",
	"asr":     "العصر",
	"maghrib": "المغرب",
	"isha":    "العشاء",
}

// DefaultLocale returns the built-in Arabic prayer-name table.
func DefaultLocale() *Locale {
	prayers := make(map[string]string, len(arabicPrayers))
	for k, v := range arabicPrayers {
		prayers[k] = v
	}
	return &Locale{Prayers: prayers}
}

// LoadLocale reads a YAML locale file and merges it over the built-in
// table, so a partial file only overrides the names it lists.
func LoadLocale(path string) (*Locale, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read locale file", goerr.V("path", path))
	}

	var override Locale
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, goerr.Wrap(err, "failed to parse locale file", goerr.V("path", path))
	}

	locale := DefaultLocale()
	for k, v := range override.Prayers {
		locale.Prayers[strings.ToLower(k)] = v
	}
	return locale, nil
}

// Prayer returns the display name for a prayer. Unknown names pass through
// unchanged so a misspelled document field still produces readable text.
func (l *Locale) Prayer(name PrayerName) string {
	if display, ok := l.Prayers[strings.ToLower(string(name))]; ok {
		return display
	}
	return string(name)
}
