// Package metadata извлекает сведения о звуковых файлах для команды tracks scan
package metadata

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// audioExtensions расширения, которые умеет играть движок
var audioExtensions = map[string]bool{
	".mp3": true,
	".wav": true,
	".ogg": true,
}

// SoundMetadata хранит сведения о звуке из тегов или имени файла
type SoundMetadata struct {
	Name   string
	Author string
}

// FileInfo содержит информацию о файле
type FileInfo struct {
	Size     int64
	Duration time.Duration
}

// ScannedFile найденный при сканировании звук
type ScannedFile struct {
	// Path путь относительно каталога сканирования
	Path     string
	Metadata SoundMetadata
	Info     *FileInfo
}

// Extractor извлекает метаданные из аудио файлов
type Extractor struct{}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor() *Extractor {
	return &Extractor{}
}

// IsAudioFile сообщает, поддерживается ли расширение файла
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// ExtractFromReader извлекает метаданные из io.ReadSeeker.
// Без тегов название строится из имени файла.
func (e *Extractor) ExtractFromReader(reader io.ReadSeeker, source string) SoundMetadata {
	// Сбрасываем reader в начало
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return e.getDefaultMetadata(source)
	}

	metadata, err := tag.ReadFrom(reader)
	if err != nil {
		return e.getDefaultMetadata(source)
	}

	result := SoundMetadata{
		Name:   strings.TrimSpace(metadata.Title()),
		Author: strings.TrimSpace(metadata.Artist()),
	}
	if result.Name == "" {
		result.Name = e.getDefaultMetadata(source).Name
	}
	return result
}

// ExtractFromFile извлекает метаданные из файла
func (e *Extractor) ExtractFromFile(filePath string) SoundMetadata {
	file, err := os.Open(filePath)
	if err != nil {
		return e.getDefaultMetadata(filePath)
	}
	defer file.Close()

	return e.ExtractFromReader(file, filePath)
}

// GetDuration получает длительность файла декодером по расширению
func (e *Extractor) GetDuration(filePath string) (time.Duration, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(file)
	case ".wav":
		streamer, format, err = wav.Decode(file)
	case ".ogg":
		streamer, format, err = vorbis.Decode(file)
	default:
		return 0, fmt.Errorf("неподдерживаемый формат: %s", ext)
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка декодирования %s: %w", filepath.Base(filePath), err)
	}
	defer streamer.Close()

	// Вычисляем длительность
	return format.SampleRate.D(streamer.Len()), nil
}

// GetFileInfo получает информацию о файле (размер и длительность)
func (e *Extractor) GetFileInfo(filePath string) (*FileInfo, error) {
	// Получаем размер файла
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения информации о файле: %w", err)
	}

	// Получаем длительность
	duration, err := e.GetDuration(filePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения длительности: %w", err)
	}

	return &FileInfo{
		Size:     fileInfo.Size(),
		Duration: duration,
	}, nil
}

// Scan обходит каталог и собирает сведения обо всех поддерживаемых файлах.
// Файлы, которые не удалось декодировать, попадают в результат без Info.
func (e *Extractor) Scan(dir string) ([]ScannedFile, error) {
	var files []ScannedFile

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsAudioFile(path) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		scanned := ScannedFile{
			Path:     filepath.ToSlash(rel),
			Metadata: e.ExtractFromFile(path),
		}
		if info, err := e.GetFileInfo(path); err == nil {
			scanned.Info = info
		}
		files = append(files, scanned)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования каталога %s: %w", dir, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// getDefaultMetadata возвращает метаданные на основе имени файла:
// "Author - Name" либо "heavy_rain" как "Heavy rain"
func (e *Extractor) getDefaultMetadata(source string) SoundMetadata {
	fileName := filepath.Base(source)
	nameWithoutExt := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	parts := strings.Split(nameWithoutExt, " - ")
	if len(parts) >= 2 {
		return SoundMetadata{
			Author: strings.TrimSpace(parts[0]),
			Name:   strings.TrimSpace(strings.Join(parts[1:], " - ")),
		}
	}

	name := strings.Join(strings.FieldsFunc(nameWithoutExt, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	}), " ")
	return SoundMetadata{Name: capitalize(name)}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
