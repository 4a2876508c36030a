package player

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// ErrUnsupportedFormat возвращается для файлов, которые backend не умеет декодировать
var ErrUnsupportedFormat = errors.New("неподдерживаемый формат")

// resampleQuality качество передискретизации для файлов с другой частотой
const resampleQuality = 4

// BeepBackend открывает треки поверх общего микшера динамиков beep
type BeepBackend struct {
	sampleRate beep.SampleRate
	mixer      *beep.Mixer
	initErr    error
}

// NewBeepBackend инициализирует динамики и запускает общий микшер.
// Ошибка инициализации не фатальна: треки загружаются, но Play
// отказывает, пока устройство вывода недоступно.
func NewBeepBackend(sampleRate int, buffer time.Duration) *BeepBackend {
	sr := beep.SampleRate(sampleRate)
	b := &BeepBackend{
		sampleRate: sr,
		mixer:      &beep.Mixer{},
	}

	if err := speaker.Init(sr, sr.N(buffer)); err != nil {
		b.initErr = fmt.Errorf("ошибка инициализации динамиков: %w", err)
		return b
	}
	speaker.Play(b.mixer)
	return b
}

// InitErr возвращает ошибку инициализации устройства вывода, если она была
func (b *BeepBackend) InitErr() error {
	return b.initErr
}

// Open открывает файл и читает только заголовок потока; данные
// декодируются по мере воспроизведения. Источник зацикливается бесконечно.
func (b *BeepBackend) Open(resourceRef string) (Handle, error) {
	f, err := os.Open(resourceRef)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}

	streamer, format, err := decode(f, resourceRef)
	if err != nil {
		f.Close()
		return nil, err
	}

	var s beep.Streamer = beep.Loop(-1, streamer)
	if format.SampleRate != b.sampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, b.sampleRate, s)
	}

	volume := &effects.Volume{
		Streamer: s,
		Base:     2,
		Silent:   true,
	}
	signal := &readySignal{Streamer: volume}
	ctrl := &beep.Ctrl{
		Streamer: signal,
		Paused:   true,
	}

	speaker.Lock()
	b.mixer.Add(ctrl)
	speaker.Unlock()

	return &beepHandle{
		backend:  b,
		streamer: streamer,
		ctrl:     ctrl,
		volume:   volume,
		signal:   signal,
	}, nil
}

// Close отключает все источники от микшера
func (b *BeepBackend) Close() {
	speaker.Lock()
	b.mixer.Clear()
	speaker.Unlock()
}

func decode(f *os.File, ref string) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)

	switch strings.ToLower(filepath.Ext(ref)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(ref))
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("ошибка декодирования %s: %w", filepath.Base(ref), err)
	}
	return streamer, format, nil
}

// readySignal закрывает ожидающий канал при первом запросе сэмплов
// после снятия паузы. Поле pending меняется только под speaker.Lock.
type readySignal struct {
	beep.Streamer
	pending chan struct{}
}

func (r *readySignal) Stream(samples [][2]float64) (int, bool) {
	if r.pending != nil {
		close(r.pending)
		r.pending = nil
	}
	return r.Streamer.Stream(samples)
}

// beepHandle источник одного трека в общем микшере
type beepHandle struct {
	backend  *BeepBackend
	streamer beep.StreamSeekCloser
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	signal   *readySignal
}

func (h *beepHandle) Play(ctx context.Context) error {
	if h.backend.initErr != nil {
		return h.backend.initErr
	}

	ready := make(chan struct{})

	speaker.Lock()
	if h.ctrl.Streamer == nil {
		speaker.Unlock()
		return errors.New("источник закрыт")
	}
	if !h.ctrl.Paused {
		speaker.Unlock()
		return nil
	}
	h.signal.pending = ready
	h.ctrl.Paused = false
	speaker.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		speaker.Lock()
		h.ctrl.Paused = true
		h.signal.pending = nil
		speaker.Unlock()
		return fmt.Errorf("воспроизведение не подтверждено: %w", ctx.Err())
	}
}

func (h *beepHandle) Pause() {
	speaker.Lock()
	h.ctrl.Paused = true
	h.signal.pending = nil
	speaker.Unlock()
}

func (h *beepHandle) Rewind() error {
	speaker.Lock()
	defer speaker.Unlock()
	return h.streamer.Seek(0)
}

func (h *beepHandle) SetLevel(level float64) {
	speaker.Lock()
	defer speaker.Unlock()
	if level <= 0 {
		h.volume.Silent = true
		return
	}
	h.volume.Silent = false
	// Base 2: уровень 0.5 соответствует Volume = -1
	h.volume.Volume = math.Log2(math.Min(level, 1))
}

func (h *beepHandle) Playing() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return h.ctrl.Streamer != nil && !h.ctrl.Paused
}

func (h *beepHandle) Close() error {
	speaker.Lock()
	h.ctrl.Streamer = nil
	h.ctrl.Paused = true
	speaker.Unlock()
	return h.streamer.Close()
}
