package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hazadus/ambient-mixer/internal/backup"
	"github.com/hazadus/ambient-mixer/internal/catalog"
	"github.com/hazadus/ambient-mixer/internal/config"
	"github.com/hazadus/ambient-mixer/internal/logging"
	"github.com/hazadus/ambient-mixer/internal/mixer"
	"github.com/hazadus/ambient-mixer/internal/player"
	"github.com/hazadus/ambient-mixer/internal/preset"
	"github.com/hazadus/ambient-mixer/internal/s3"
	"github.com/hazadus/ambient-mixer/internal/timer"
	"github.com/hazadus/ambient-mixer/internal/track"
)

const (
	defaultConfigPath = "~/.ambient-mixer/config.yaml"
)

// Application содержит зависимости, общие для всех команд
type Application struct {
	Config  *config.Config
	Catalog *catalog.Catalog
	Logger  *slog.Logger

	// Storage хранилище пресетов; если не задано, открывается через gdata
	Storage preset.Storage
	// Objects хранилище резервных копий; если не задано, создается S3 клиент
	Objects backup.ObjectStore

	configPath string
	logLevel   string
	logCloser  io.Closer
}

// NewApplication создает приложение с путем к конфигурации по умолчанию
func NewApplication() *Application {
	return &Application{configPath: defaultConfigPath}
}

// init загружает конфигурацию, логгер и каталог. Уже заданные поля
// не перезаписываются.
func (app *Application) init() error {
	if app.Config == nil {
		cfg, err := config.LoadConfig(app.configPath)
		if err != nil {
			return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
		}
		app.Config = cfg
	}

	if app.logLevel != "" {
		app.Config.LogLevel = app.logLevel
	}

	if app.Logger == nil {
		level, err := logging.ParseLevel(app.Config.LogLevel)
		if err != nil {
			return err
		}
		app.Logger = logging.New(os.Stderr, level)
	}

	if app.Catalog == nil {
		c, err := catalog.Load(app.Config.CatalogFile)
		if err != nil {
			return fmt.Errorf("ошибка загрузки каталога звуков: %w", err)
		}
		app.Catalog = c
	}
	return nil
}

// logToFile переключает логгер на файл из конфигурации
func (app *Application) logToFile() error {
	level, err := logging.ParseLevel(app.Config.LogLevel)
	if err != nil {
		return err
	}
	logger, closer, err := logging.OpenFile(app.Config.LogFile, level)
	if err != nil {
		return err
	}
	app.Logger = logger
	app.logCloser = closer
	return nil
}

// Close освобождает ресурсы приложения
func (app *Application) Close() {
	if app.logCloser != nil {
		_ = app.logCloser.Close()
		app.logCloser = nil
	}
}

// openStore открывает и загружает хранилище пользовательских пресетов
func (app *Application) openStore() (*preset.Store, error) {
	if app.Storage == nil {
		storage, err := preset.OpenStorage(app.Config.AppName)
		if err != nil {
			return nil, err
		}
		app.Storage = storage
	}

	store := preset.NewStore(app.Storage, app.Logger)
	store.Load()
	return store, nil
}

// objectStore возвращает хранилище резервных копий
func (app *Application) objectStore() (backup.ObjectStore, error) {
	if app.Objects != nil {
		return app.Objects, nil
	}

	client, err := s3.NewClient(&s3.Config{
		Region:     app.Config.AwsRegion,
		AccessKey:  app.Config.AwsAccessKey,
		SecretKey:  app.Config.AwsSecretKey,
		Endpoint:   app.Config.AwsEndpoint,
		BucketName: app.Config.AwsBucketName,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания S3 клиента: %w", err)
	}
	return client, nil
}

// playTimeout сколько ждать подтверждения запуска трека
func (app *Application) playTimeout() time.Duration {
	return time.Duration(app.Config.PlayTimeoutMS) * time.Millisecond
}

// session собранный микшер со всеми зависимостями
type session struct {
	mixer     *mixer.Mixer
	engine    *player.Engine
	backend   *player.BeepBackend
	countdown *timer.Countdown
	store     *preset.Store
}

// newSession открывает устройство вывода, загружает звуки каталога и
// создает микшер. Тики таймера доставляются через dispatch в цикл,
// которому принадлежит микшер.
func (app *Application) newSession(dispatch timer.Dispatcher) (*session, error) {
	store, err := app.openStore()
	if err != nil {
		return nil, err
	}

	backend := player.NewBeepBackend(app.Config.SampleRate, time.Duration(app.Config.BufferMS)*time.Millisecond)
	if err := backend.InitErr(); err != nil {
		app.Logger.Warn("audio output unavailable", "error", err)
	}

	engine := player.NewEngine(backend, app.Logger, player.WithPlayTimeout(app.playTimeout()))
	tracks := track.NewManager(app.Catalog)
	for _, t := range tracks.ListTracks() {
		engine.Load(t.ID, catalog.ResourcePath(app.Config.SoundsDir, t))
	}

	countdown := timer.New(nil, nil, timer.WithDispatcher(dispatch))
	m := mixer.New(tracks, engine, store, countdown, nil, app.Logger, mixer.Options{
		DefaultVolume:  app.Config.DefaultVolume,
		DuplicateNames: mixer.DuplicatePolicy(app.Config.DuplicateNames),
		Builtin:        app.Catalog.Presets,
	})
	countdown.SetCallbacks(m.TimerTick, m.OnTimerComplete)

	app.Logger.Info("session ready",
		"tracks", len(tracks.IDs()),
		"loaded", len(engine.Loaded()),
		"presets", len(store.List()))

	return &session{
		mixer:     m,
		engine:    engine,
		backend:   backend,
		countdown: countdown,
		store:     store,
	}, nil
}

// Close останавливает таймер и освобождает звуки
func (s *session) Close() {
	s.countdown.Stop()
	_ = s.engine.Close()
	s.backend.Close()
}

func main() {
	app := NewApplication()
	defer app.Close()

	ctx := context.Background()
	rootCmd := app.createRootCommand(ctx)

	if err := rootCmd.Execute(); err != nil {
		app.Close()
		os.Exit(1)
	}
}
