package model_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/minaret/pkg/model"
)

func TestDefaultLocale(t *testing.T) {
	locale := model.DefaultLocale()

	gt.Equal(t, locale.Prayer("fajr"), "الفجر")
	gt.Equal(t, locale.Prayer("Maghrib"), "المغرب")
	// Unknown names pass through.
	gt.Equal(t, locale.Prayer("tahajjud"), "tahajjud")
}

func TestLoadLocale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locale.yml")
	content := []byte("prayers:\n  fajr: Fajr\n  dhuhr: Dhuhr\n")
	gt.NoError(t, os.WriteFile(path, content, 0600))

	locale, err := model.LoadLocale(path)
	gt.NoError(t, err)

	gt.Equal(t, locale.Prayer("fajr"), "Fajr")
	// Names not in the override keep the built-in value.
	gt.Equal(t, locale.Prayer("isha"), "العشاء")
}

func TestLoadLocaleErrors(t *testing.T) {
	_, err := model.LoadLocale(filepath.Join(t.TempDir(), "missing.yml"))
	gt.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yml")
	gt.NoError(t, os.WriteFile(path, []byte("prayers: [not a map"), 0600))
	_, err = model.LoadLocale(path)
	gt.Error(t, err)
}

func TestEncouragementKind(t *testing.T) {
	dua := &model.Encouragement{Type: "dua"}
	gt.V(t, dua.EventKind()).Equal(model.EventDua)

	plain := &model.Encouragement{Type: "nudge"}
	gt.V(t, plain.EventKind()).Equal(model.EventEncouragement)
}

func TestTopicOf(t *testing.T) {
	gt.Equal(t, model.TopicOf("g1"), "family_g1")
}
