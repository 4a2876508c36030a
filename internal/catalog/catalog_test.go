package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Ошибка загрузки встроенного каталога: %v", err)
	}

	if len(c.Tracks) == 0 {
		t.Fatal("Встроенный каталог не должен быть пустым")
	}
	if _, ok := c.Presets["focus"]; !ok {
		t.Error("Ожидался встроенный пресет focus")
	}
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}
	def, _ := Default()
	if len(c.Tracks) != len(def.Tracks) {
		t.Errorf("Ожидалось %d треков, получено %d", len(def.Tracks), len(c.Tracks))
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")

	c := NewCatalog()
	c.AddTrack(Track{ID: "rain", Name: "Rain", File: "rain.mp3"})
	c.AddTrack(Track{ID: "wind", Name: "Wind", File: "wind.ogg"})
	c.Presets["calm"] = BuiltinPreset{Name: "Calm", Sounds: map[string]int{"rain": 20}}

	if err := c.Save(path); err != nil {
		t.Fatalf("Ошибка сохранения: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}
	if len(loaded.Tracks) != 2 || loaded.Tracks[1].ID != "wind" {
		t.Errorf("Неожиданные треки после загрузки: %+v", loaded.Tracks)
	}
	if loaded.Presets["calm"].Sounds["rain"] != 20 {
		t.Errorf("Неожиданный пресет после загрузки: %+v", loaded.Presets["calm"])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		errPart string
	}{
		{
			name:    "duplicate id",
			catalog: Catalog{Tracks: []Track{{ID: "a", File: "a.mp3"}, {ID: "a", File: "b.mp3"}}},
			errPart: "повторяющийся id",
		},
		{
			name:    "missing file",
			catalog: Catalog{Tracks: []Track{{ID: "a"}}},
			errPart: "отсутствует file",
		},
		{
			name: "unknown track in preset",
			catalog: Catalog{
				Tracks:  []Track{{ID: "a", File: "a.mp3"}},
				Presets: map[string]BuiltinPreset{"p": {Sounds: map[string]int{"b": 10}}},
			},
			errPart: "неизвестный трек",
		},
		{
			name: "volume out of range",
			catalog: Catalog{
				Tracks:  []Track{{ID: "a", File: "a.mp3"}},
				Presets: map[string]BuiltinPreset{"p": {Sounds: map[string]int{"a": 0}}},
			},
			errPart: "вне диапазона",
		},
	}

	for _, test := range tests {
		err := test.catalog.Validate()
		if err == nil || !strings.Contains(err.Error(), test.errPart) {
			t.Errorf("%s: ожидалась ошибка с %q, получено: %v", test.name, test.errPart, err)
		}
	}
}

func TestAddTrackMakesIDUnique(t *testing.T) {
	c := NewCatalog()
	first := c.AddTrack(Track{Name: "Heavy Rain", File: "1.mp3"})
	second := c.AddTrack(Track{Name: "Heavy Rain", File: "2.mp3"})

	if first.ID != "heavy-rain" {
		t.Errorf("Ожидался id heavy-rain, получено %s", first.ID)
	}
	if second.ID != "heavy-rain-2" {
		t.Errorf("Ожидался id heavy-rain-2, получено %s", second.ID)
	}
}

func TestResourcePath(t *testing.T) {
	dir := t.TempDir()
	if got := ResourcePath(dir, Track{File: "rain.mp3"}); got != filepath.Join(dir, "rain.mp3") {
		t.Errorf("Неожиданный путь: %s", got)
	}
	abs := filepath.Join(string(os.PathSeparator), "srv", "rain.mp3")
	if got := ResourcePath(dir, Track{File: abs}); got != abs {
		t.Errorf("Абсолютный путь не должен меняться: %s", got)
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Ocean Waves":  "ocean-waves",
		"  Café  Noir": "caf-noir",
		"!!!":          "track",
		"Rain_01":      "rain-01",
	}
	for input, expected := range tests {
		if got := Slug(input); got != expected {
			t.Errorf("Slug(%q) = %q; expected %q", input, got, expected)
		}
	}
}
