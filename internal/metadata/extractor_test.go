package metadata

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTestWAV пишет тишину в формате PCM WAV
func writeTestWAV(t *testing.T, path string, sampleRate int, frames int) {
	t.Helper()

	const channels, bits = 2, 16
	dataSize := frames * channels * bits / 8

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Ошибка создания файла: %v", err)
	}
	defer f.Close()

	write := func(v any) {
		if err := binary.Write(f, binary.LittleEndian, v); err != nil {
			t.Fatalf("Ошибка записи WAV: %v", err)
		}
	}
	f.WriteString("RIFF")
	write(uint32(36 + dataSize))
	f.WriteString("WAVEfmt ")
	write(uint32(16))
	write(uint16(1))
	write(uint16(channels))
	write(uint32(sampleRate))
	write(uint32(sampleRate * channels * bits / 8))
	write(uint16(channels * bits / 8))
	write(uint16(bits))
	f.WriteString("data")
	write(uint32(dataSize))
	write(make([]int16, frames*channels))
}

func TestExtractFromNoMetadataFile(t *testing.T) {
	tempDir := t.TempDir()
	testFilePath := filepath.Join(tempDir, "Freesound - Heavy Rain.mp3")

	if err := os.WriteFile(testFilePath, []byte("fake content"), 0644); err != nil {
		t.Fatalf("Ошибка создания тестового файла: %v", err)
	}

	metadata := NewExtractor().ExtractFromFile(testFilePath)

	if metadata.Author != "Freesound" {
		t.Errorf("Ожидался Author: Freesound, получено: %s", metadata.Author)
	}
	if metadata.Name != "Heavy Rain" {
		t.Errorf("Ожидался Name: Heavy Rain, получено: %s", metadata.Name)
	}
}

func TestGetDefaultMetadata(t *testing.T) {
	extractor := NewExtractor()

	tests := []struct {
		source string
		name   string
		author string
	}{
		{"/path/to/heavy_rain.ogg", "Heavy rain", ""},
		{"/path/to/camp-fire.wav", "Camp fire", ""},
		{"/path/to/шум_леса.mp3", "Шум леса", ""},
		{"/path/to/Author - Night - Crickets.mp3", "Night - Crickets", "Author"},
	}

	for _, test := range tests {
		metadata := extractor.ExtractFromFile(test.source)
		if metadata.Name != test.name || metadata.Author != test.author {
			t.Errorf("ExtractFromFile(%s) = %+v; expected name %q author %q", test.source, metadata, test.name, test.author)
		}
	}
}

func TestExtractFromReader(t *testing.T) {
	tempDir := t.TempDir()
	testFilePath := filepath.Join(tempDir, "Test - Song.mp3")

	if err := os.WriteFile(testFilePath, []byte("test content"), 0644); err != nil {
		t.Fatalf("Ошибка создания тестового файла: %v", err)
	}

	file, err := os.Open(testFilePath)
	if err != nil {
		t.Fatalf("Ошибка открытия файла: %v", err)
	}
	defer file.Close()

	metadata := NewExtractor().ExtractFromReader(file, testFilePath)
	if metadata.Author != "Test" || metadata.Name != "Song" {
		t.Errorf("Неожиданные метаданные: %+v", metadata)
	}
}

func TestGetFileInfoWAV(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "wind.wav")
	writeTestWAV(t, path, 8000, 16000)

	info, err := NewExtractor().GetFileInfo(path)
	if err != nil {
		t.Fatalf("Ошибка получения информации: %v", err)
	}
	if info.Duration != 2*time.Second {
		t.Errorf("Ожидалась длительность 2s, получено %v", info.Duration)
	}
	if info.Size != 44+16000*4 {
		t.Errorf("Неожиданный размер: %d", info.Size)
	}
}

func TestGetFileInfoErrors(t *testing.T) {
	tempDir := t.TempDir()
	broken := filepath.Join(tempDir, "test.mp3")
	if err := os.WriteFile(broken, []byte("test content for file info"), 0644); err != nil {
		t.Fatalf("Ошибка создания тестового файла: %v", err)
	}

	extractor := NewExtractor()

	fileInfo, err := extractor.GetFileInfo(broken)
	if err == nil {
		t.Fatal("Ожидалась ошибка для некорректного MP3 файла")
	}
	if fileInfo != nil {
		t.Error("fileInfo должен быть nil при ошибке")
	}
	if !strings.Contains(err.Error(), "ошибка получения длительности") {
		t.Errorf("Неожиданное сообщение об ошибке: %v", err)
	}

	_, err = extractor.GetFileInfo("/non/existent/file.mp3")
	if err == nil || !strings.Contains(err.Error(), "ошибка получения информации о файле") {
		t.Errorf("Неожиданная ошибка для несуществующего файла: %v", err)
	}

	flac := filepath.Join(tempDir, "sea.flac")
	os.WriteFile(flac, []byte("x"), 0644)
	if _, err := extractor.GetDuration(flac); err == nil {
		t.Error("Ожидалась ошибка для неподдерживаемого формата")
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeTestWAV(t, filepath.Join(dir, "soft_wind.wav"), 8000, 8000)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0644)
	os.MkdirAll(filepath.Join(dir, "nature"), 0755)
	os.WriteFile(filepath.Join(dir, "nature", "birds.mp3"), []byte("broken"), 0644)

	files, err := NewExtractor().Scan(dir)
	if err != nil {
		t.Fatalf("Ошибка сканирования: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Ожидалось 2 файла, получено %d: %+v", len(files), files)
	}

	if files[0].Path != "nature/birds.mp3" || files[0].Info != nil {
		t.Errorf("Неожиданный первый файл: %+v", files[0])
	}
	if files[1].Path != "soft_wind.wav" || files[1].Metadata.Name != "Soft wind" {
		t.Errorf("Неожиданный второй файл: %+v", files[1])
	}
	if files[1].Info == nil || files[1].Info.Duration != time.Second {
		t.Errorf("Ожидалась длительность 1s: %+v", files[1].Info)
	}

	if _, err := NewExtractor().Scan(filepath.Join(dir, "missing")); err == nil {
		t.Error("Ожидалась ошибка для несуществующего каталога")
	}
}

func TestIsAudioFile(t *testing.T) {
	for path, expected := range map[string]bool{
		"rain.MP3": true,
		"a.wav":    true,
		"b.ogg":    true,
		"c.flac":   false,
		"readme":   false,
	} {
		if got := IsAudioFile(path); got != expected {
			t.Errorf("IsAudioFile(%s) = %v; expected %v", path, got, expected)
		}
	}
}
