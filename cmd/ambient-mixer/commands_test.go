package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/hazadus/ambient-mixer/internal/catalog"
	"github.com/hazadus/ambient-mixer/internal/config"
	"github.com/hazadus/ambient-mixer/internal/logging"
	"github.com/hazadus/ambient-mixer/internal/mixer"
	"github.com/hazadus/ambient-mixer/internal/preset"
	"github.com/hazadus/ambient-mixer/internal/s3"
)

// captureOutput перехватывает stdout и stderr во время выполнения функции
func captureOutput(t *testing.T, fn func()) string {
	// Сохраняем оригинальные stdout и stderr
	oldStdout := os.Stdout
	oldStderr := os.Stderr

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Ошибка создания pipe: %v", err)
	}

	os.Stdout = w
	os.Stderr = w

	// Читаем параллельно, чтобы длинный вывод не заблокировал pipe
	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	fn()

	// Восстанавливаем оригинальные stdout и stderr
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	w.Close()
	return <-done
}

// fakeObjects хранилище объектов в памяти
type fakeObjects struct {
	objects map[string][]byte
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (f *fakeObjects) UploadFile(_ context.Context, reader io.Reader, key string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.objects[key] = data
	return "s3://test-bucket/" + key, nil
}

func (f *fakeObjects) DownloadFile(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, s3.ErrNotFound
	}
	return data, nil
}

func (f *fakeObjects) ListKeys(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeObjects) DeleteFile(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

// createTestApplication создает тестовое приложение с временными данными
func createTestApplication(t *testing.T, tempDir string) *Application {
	t.Helper()

	testConfig := config.Default()
	testConfig.SoundsDir = filepath.Join(tempDir, "sounds")
	testConfig.CatalogFile = filepath.Join(tempDir, "catalog.yaml")
	testConfig.AwsBucketName = "test-bucket"

	testCatalog := catalog.NewCatalog()
	testCatalog.Tracks = []catalog.Track{
		{ID: "rain", Name: "Rain", File: "rain.mp3", Icon: "🌧️"},
		{ID: "fire", Name: "Fireplace", File: "fire.mp3", URL: "https://example.com/fire.mp3"},
	}
	testCatalog.Presets["focus"] = catalog.BuiltinPreset{
		Name:   "Focus",
		Sounds: map[string]int{"rain": 60, "fire": 30},
	}

	return &Application{
		Config:  testConfig,
		Catalog: testCatalog,
		Logger:  logging.Discard(),
		Storage: preset.NewMemoryStorage(),
		Objects: newFakeObjects(),
	}
}

// saveTestPreset сохраняет пользовательский пресет в хранилище приложения
func saveTestPreset(t *testing.T, app *Application, name string, volumes map[string]int) string {
	t.Helper()

	store, err := app.openStore()
	if err != nil {
		t.Fatalf("Ошибка открытия хранилища: %v", err)
	}
	id, err := store.Save(name, volumes)
	if err != nil {
		t.Fatalf("Ошибка сохранения пресета: %v", err)
	}
	return id
}

// writeTestWAV пишет секунду тишины в формате PCM WAV
func writeTestWAV(t *testing.T, path string) {
	t.Helper()

	const sampleRate, frames = 8000, 8000
	var buf bytes.Buffer
	write := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	dataSize := frames * 4
	buf.WriteString("RIFF")
	write(uint32(36 + dataSize))
	buf.WriteString("WAVEfmt ")
	write(uint32(16))
	write(uint16(1))
	write(uint16(2))
	write(uint32(sampleRate))
	write(uint32(sampleRate * 4))
	write(uint16(4))
	write(uint16(16))
	buf.WriteString("data")
	write(uint32(dataSize))
	write(make([]int16, frames*2))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Ошибка создания каталога: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Ошибка записи WAV: %v", err)
	}
}

// TestCmdTracksList проверяет, что команда `tracks list` выводит каталог и статус файлов
func TestCmdTracksList(t *testing.T) {
	tempDir := t.TempDir()
	app := createTestApplication(t, tempDir)

	// Файл есть только у rain
	if err := os.MkdirAll(app.Config.SoundsDir, 0755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(app.Config.SoundsDir, "rain.mp3"), []byte("x"), 0644)

	listCmd := app.createTracksListCommand()

	output := captureOutput(t, func() {
		listCmd.SetArgs([]string{})
		if err := listCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения команды tracks list: %v", err)
		}
	})

	expectedStrings := []string{
		"📚 Найдено звуков: 2",
		"🌧️ Rain",
		"Fireplace",
		"✅ есть",
		"🌐 скачать",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("Вывод команды tracks list не содержит ожидаемую строку '%s': %s", expected, output)
		}
	}
}

// TestCmdTracksListEmpty проверяет вывод для пустого каталога
func TestCmdTracksListEmpty(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	app.Catalog = catalog.NewCatalog()

	output := captureOutput(t, func() {
		if err := app.createTracksListCommand().Execute(); err != nil {
			t.Errorf("Ошибка выполнения команды tracks list: %v", err)
		}
	})

	if !strings.Contains(output, "📚 Каталог пуст") {
		t.Errorf("Команда tracks list не отобразила сообщение о пустом каталоге: %s", output)
	}
}

// TestCmdTracksScan проверяет, что `tracks scan` добавляет новые файлы и сохраняет каталог
func TestCmdTracksScan(t *testing.T) {
	tempDir := t.TempDir()
	app := createTestApplication(t, tempDir)

	writeTestWAV(t, filepath.Join(app.Config.SoundsDir, "soft_wind.wav"))
	os.WriteFile(filepath.Join(app.Config.SoundsDir, "broken.ogg"), []byte("broken"), 0644)

	scanCmd := app.createTracksScanCommand()
	output := captureOutput(t, func() {
		scanCmd.SetArgs([]string{})
		if err := scanCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения команды tracks scan: %v", err)
		}
	})

	if !strings.Contains(output, "Пропускаем broken.ogg") {
		t.Errorf("Ожидалось сообщение о пропуске файла: %s", output)
	}
	if !strings.Contains(output, "📦 Добавлено звуков: 1") {
		t.Errorf("Ожидалось сообщение о добавлении: %s", output)
	}

	saved, err := catalog.Load(app.Config.CatalogFile)
	if err != nil {
		t.Fatalf("Ошибка загрузки сохраненного каталога: %v", err)
	}
	if len(saved.Tracks) != 3 {
		t.Fatalf("Ожидалось 3 трека, получено %d", len(saved.Tracks))
	}
	added := saved.Tracks[2]
	if added.ID != "soft-wind" || added.Name != "Soft wind" || added.File != "soft_wind.wav" {
		t.Errorf("Неожиданный трек: %+v", added)
	}

	// Повторное сканирование ничего не добавляет
	output = captureOutput(t, func() {
		if err := app.scanTracks(app.Config.SoundsDir, app.Config.CatalogFile); err != nil {
			t.Errorf("Ошибка повторного сканирования: %v", err)
		}
	})
	if !strings.Contains(output, "Новых звуков нет") {
		t.Errorf("Повторное сканирование изменило каталог: %s", output)
	}
}

// TestCmdTracksScanWithoutCatalogFile проверяет ошибку без файла каталога
func TestCmdTracksScanWithoutCatalogFile(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	app.Config.CatalogFile = ""

	scanCmd := app.createTracksScanCommand()
	scanCmd.SetOut(io.Discard)
	scanCmd.SetErr(io.Discard)
	scanCmd.SetArgs([]string{})

	err := scanCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "не задан файл каталога") {
		t.Errorf("Ожидалась ошибка о файле каталога, получено %v", err)
	}
}

// TestCmdPresetsList проверяет вывод встроенных и сохраненных пресетов
func TestCmdPresetsList(t *testing.T) {
	app := createTestApplication(t, t.TempDir())

	output := captureOutput(t, func() {
		if err := app.listPresets(); err != nil {
			t.Errorf("Ошибка выполнения presets list: %v", err)
		}
	})
	if !strings.Contains(output, "focus") || !strings.Contains(output, "fire 30%, rain 60%") {
		t.Errorf("Не выведен встроенный пресет: %s", output)
	}
	if !strings.Contains(output, "Сохраненных пресетов нет") {
		t.Errorf("Ожидалось сообщение об отсутствии пресетов: %s", output)
	}

	id := saveTestPreset(t, app, "Вечер", map[string]int{"rain": 40, "fire": 0})

	output = captureOutput(t, func() {
		if err := app.listPresets(); err != nil {
			t.Errorf("Ошибка выполнения presets list: %v", err)
		}
	})
	for _, expected := range []string{"💾 Сохраненные пресеты: 1", id, "Вечер", "rain 40%"} {
		if !strings.Contains(output, expected) {
			t.Errorf("Вывод не содержит '%s': %s", expected, output)
		}
	}
	if strings.Contains(output, "fire 0%") {
		t.Errorf("Нулевые громкости не должны сохраняться: %s", output)
	}
}

// TestCmdPresetsDelete проверяет удаление по id и по имени
func TestCmdPresetsDelete(t *testing.T) {
	app := createTestApplication(t, t.TempDir())

	first := saveTestPreset(t, app, "Утро", map[string]int{"rain": 50})
	time.Sleep(2 * time.Millisecond)
	saveTestPreset(t, app, "Ночь", map[string]int{"fire": 20})

	deleteCmd := app.createPresetsDeleteCommand()
	output := captureOutput(t, func() {
		deleteCmd.SetArgs([]string{first})
		if err := deleteCmd.Execute(); err != nil {
			t.Errorf("Ошибка удаления по id: %v", err)
		}
	})
	if !strings.Contains(output, "🗑️  Пресет удален: Утро") {
		t.Errorf("Неожиданный вывод: %s", output)
	}

	captureOutput(t, func() {
		if err := app.deletePreset("Ночь"); err != nil {
			t.Errorf("Ошибка удаления по имени: %v", err)
		}
	})

	store, _ := app.openStore()
	if len(store.List()) != 0 {
		t.Errorf("Ожидалось пустое хранилище, осталось %d", len(store.List()))
	}

	if err := app.deletePreset("нет такого"); err == nil {
		t.Error("Ожидалась ошибка для неизвестного пресета")
	}
}

// TestCmdPresetsBackupRestore проверяет резервное копирование и восстановление
func TestCmdPresetsBackupRestore(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	ctx := context.Background()

	id := saveTestPreset(t, app, "Дождь", map[string]int{"rain": 70})

	output := captureOutput(t, func() {
		if err := app.backupPresets(ctx); err != nil {
			t.Errorf("Ошибка резервного копирования: %v", err)
		}
	})
	if !strings.Contains(output, "✅ Сохранено пресетов: 1") || !strings.Contains(output, "s3://test-bucket/presets/") {
		t.Errorf("Неожиданный вывод backup: %s", output)
	}

	output = captureOutput(t, func() {
		if err := app.listBackups(ctx); err != nil {
			t.Errorf("Ошибка получения списка копий: %v", err)
		}
	})
	if !strings.Contains(output, "🗄️  Резервные копии: 1") {
		t.Errorf("Неожиданный вывод backups: %s", output)
	}

	captureOutput(t, func() {
		if err := app.deletePreset(id); err != nil {
			t.Errorf("Ошибка удаления: %v", err)
		}
	})

	output = captureOutput(t, func() {
		if err := app.restorePresets(ctx, "", false); err != nil {
			t.Errorf("Ошибка восстановления: %v", err)
		}
	})
	if !strings.Contains(output, "сохраненных пресетов: 1") {
		t.Errorf("Неожиданный вывод restore: %s", output)
	}

	store, _ := app.openStore()
	restored, ok := store.Get(id)
	if !ok || restored.Name != "Дождь" || restored.Sounds["rain"] != 70 {
		t.Errorf("Пресет не восстановлен: %+v", restored)
	}
}

// TestCmdPresetsRestoreWithoutBackups проверяет восстановление из пустого бакета
func TestCmdPresetsRestoreWithoutBackups(t *testing.T) {
	app := createTestApplication(t, t.TempDir())

	output := captureOutput(t, func() {
		if err := app.restorePresets(context.Background(), "", false); err != nil {
			t.Errorf("Пустой бакет не должен быть ошибкой: %v", err)
		}
	})
	if !strings.Contains(output, "📭 Резервных копий нет") {
		t.Errorf("Неожиданный вывод: %s", output)
	}

	err := app.restorePresets(context.Background(), "presets/missing.json", false)
	if err == nil {
		t.Error("Ожидалась ошибка для несуществующей копии")
	}
}

// TestCmdSoundsFetch проверяет загрузку недостающих файлов
func TestCmdSoundsFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fire.mp3" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("crackling"))
	}))
	defer server.Close()

	app := createTestApplication(t, t.TempDir())
	app.Catalog.Tracks[1].URL = server.URL + "/fire.mp3"

	ctx := context.Background()
	fetchCmd := app.createSoundsFetchCommand(ctx)

	output := captureOutput(t, func() {
		fetchCmd.SetArgs([]string{})
		if err := fetchCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения sounds fetch: %v", err)
		}
	})
	if !strings.Contains(output, "Загружено: 1, уже было: 0, ошибок: 0") {
		t.Errorf("Неожиданный вывод: %s", output)
	}

	data, err := os.ReadFile(filepath.Join(app.Config.SoundsDir, "fire.mp3"))
	if err != nil || string(data) != "crackling" {
		t.Errorf("Файл не загружен: %v", err)
	}

	output = captureOutput(t, func() {
		if err := app.fetchSounds(ctx, nil, false); err != nil {
			t.Errorf("Ошибка повторной загрузки: %v", err)
		}
	})
	if !strings.Contains(output, "Загружено: 0, уже было: 1") {
		t.Errorf("Существующий файл не должен загружаться повторно: %s", output)
	}
}

// TestCmdSoundsFetchErrors проверяет ошибки выбора треков и загрузки
func TestCmdSoundsFetchErrors(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	app := createTestApplication(t, t.TempDir())
	app.Catalog.Tracks[1].URL = server.URL + "/fire.mp3"
	ctx := context.Background()

	if err := app.fetchSounds(ctx, []string{"unknown"}, false); err == nil {
		t.Error("Ожидалась ошибка для неизвестного трека")
	}
	if err := app.fetchSounds(ctx, []string{"rain"}, false); err == nil || !strings.Contains(err.Error(), "отсутствует url") {
		t.Errorf("Ожидалась ошибка об отсутствии url, получено %v", err)
	}

	captureOutput(t, func() {
		err := app.fetchSounds(ctx, []string{"fire"}, false)
		if err == nil || !strings.Contains(err.Error(), "не удалось загрузить звуков: 1") {
			t.Errorf("Ожидалась ошибка загрузки, получено %v", err)
		}
	})
}

// TestRootCommandUsesPresetConfig проверяет, что корневая команда не
// перезагружает заданную конфигурацию и применяет --log-level
func TestRootCommandUsesPresetConfig(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	rootCmd := app.createRootCommand(context.Background())

	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"--log-level", "debug", "tracks", "list"})
		if err := rootCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения: %v", err)
		}
	})

	if !strings.Contains(output, "📚 Найдено звуков: 2") {
		t.Errorf("Неожиданный вывод: %s", output)
	}
	if app.Config.LogLevel != "debug" {
		t.Errorf("Ожидался уровень debug, получено %s", app.Config.LogLevel)
	}
}

// TestResolvePreset проверяет поиск пресета по ключу, id и имени
func TestResolvePreset(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	id := saveTestPreset(t, app, "Лес", map[string]int{"rain": 10})
	store, _ := app.openStore()

	tests := []struct {
		ref    string
		key    string
		custom bool
	}{
		{"focus", "focus", false},
		{id, id, true},
		{"Лес", id, true},
	}
	for _, test := range tests {
		key, custom, err := app.resolvePreset(store, test.ref)
		if err != nil || key != test.key || custom != test.custom {
			t.Errorf("resolvePreset(%s) = %s, %v, %v", test.ref, key, custom, err)
		}
	}

	if _, _, err := app.resolvePreset(store, "missing"); err == nil {
		t.Error("Ожидалась ошибка для неизвестного пресета")
	}
	if name := app.presetName(store, id, true); name != "Лес" {
		t.Errorf("Неожиданное имя: %s", name)
	}
	if name := app.presetName(store, "focus", false); name != "Focus" {
		t.Errorf("Неожиданное имя: %s", name)
	}
}

// TestConsolePresenter проверяет вывод транспорта, таймера и уведомлений
func TestConsolePresenter(t *testing.T) {
	var buf bytes.Buffer
	p := newConsolePresenter(&buf)

	var presenter mixer.Presenter = p
	presenter.UpdateMainPlayButton(false)
	presenter.UpdateTimerDisplay(4, 5)
	presenter.UpdateTimerDisplay(0, 0)
	presenter.Notify(mixer.NoticeWarning, "нет звуков")
	presenter.UpdateVolumeDisplay("rain", 40)

	output := buf.String()
	for _, expected := range []string{"⏸️  Пауза", "⏳ Осталось: 04:05", "⚠️  нет звуков"} {
		if !strings.Contains(output, expected) {
			t.Errorf("Вывод не содержит '%s': %q", expected, output)
		}
	}
	if strings.Count(output, "Осталось") != 1 {
		t.Errorf("Нулевой тик не должен печататься: %q", output)
	}
}

// TestEventLoop проверяет порядок выполнения и поведение после остановки
func TestEventLoop(t *testing.T) {
	loop := newEventLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	var order []int
	loop.Dispatch(func() { order = append(order, 1) })
	loop.Dispatch(func() { order = append(order, 2) })

	var got []int
	if err := loop.Call(ctx, func() { got = append([]int(nil), order...) }); err != nil {
		t.Fatalf("Ошибка Call: %v", err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Неожиданный порядок: %v", got)
	}

	cancel()
	<-loop.done

	// После остановки вызовы не блокируются
	loop.Dispatch(func() { t.Error("Вызов после остановки не должен выполняться") })
	if err := loop.Call(context.Background(), func() {}); err != errLoopStopped {
		t.Errorf("Ожидалась errLoopStopped, получено %v", err)
	}
}

// TestCmdPresetsBackupsKeep проверяет удаление старых копий флагом --keep
func TestCmdPresetsBackupsKeep(t *testing.T) {
	app := createTestApplication(t, t.TempDir())
	objects := app.Objects.(*fakeObjects)
	objects.objects["presets/presets-20260101-000000.json"] = []byte("{}")
	objects.objects["presets/presets-20260102-000000.json"] = []byte("{}")
	objects.objects["presets/presets-20260103-000000.json"] = []byte("{}")

	backupsCmd := app.createPresetsBackupsCommand(context.Background())
	output := captureOutput(t, func() {
		backupsCmd.SetArgs([]string{"--keep", "1"})
		if err := backupsCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения presets backups: %v", err)
		}
	})

	if strings.Count(output, "🗑️  Удалена копия") != 2 {
		t.Errorf("Ожидалось удаление двух копий: %s", output)
	}
	if !strings.Contains(output, "🗄️  Резервные копии: 1") || !strings.Contains(output, "presets-20260103-000000.json") {
		t.Errorf("Должна остаться последняя копия: %s", output)
	}
}
