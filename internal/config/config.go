// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Политики обработки совпадающих имен пресетов
const (
	DuplicateWarn  = "warn"
	DuplicateBlock = "block"
	DuplicateAllow = "allow"
)

// Config структура для хранения конфигурации приложения
type Config struct {
	SoundsDir      string `yaml:"sounds_dir"`
	CatalogFile    string `yaml:"catalog_file"`
	AppName        string `yaml:"app_name"`
	SampleRate     int    `yaml:"sample_rate"`
	BufferMS       int    `yaml:"buffer_ms"`
	PlayTimeoutMS  int    `yaml:"play_timeout_ms"`
	DefaultVolume  int    `yaml:"default_volume"`
	DuplicateNames string `yaml:"duplicate_names"`
	ListenAddr     string `yaml:"listen_addr"`
	LogLevel       string `yaml:"log_level"`
	LogFile        string `yaml:"log_file"`
	AwsBucketName  string `yaml:"aws_bucket_name"`
	AwsAccessKey   string `yaml:"aws_access_key"`
	AwsSecretKey   string `yaml:"aws_secret_key"`
	AwsRegion      string `yaml:"aws_region"`
	AwsEndpoint    string `yaml:"aws_endpoint"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Если файл отсутствует, возвращается конфигурация по умолчанию.
func LoadConfig(filePath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := strings.Replace(filePath, "~", home, 1)

	config := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Первый запуск: работаем на значениях по умолчанию
	case err != nil:
		return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
		}
	}

	config.applyDefaults()

	// Раскрываем тильду в путях
	config.SoundsDir = strings.Replace(config.SoundsDir, "~", home, 1)
	config.CatalogFile = strings.Replace(config.CatalogFile, "~", home, 1)
	config.LogFile = strings.Replace(config.LogFile, "~", home, 1)

	return config, config.Validate()
}

// applyDefaults устанавливает значения по умолчанию, если они не заданы
func (c *Config) applyDefaults() {
	if c.SoundsDir == "" {
		c.SoundsDir = "~/.ambient-mixer/audio"
	}
	if c.AppName == "" {
		c.AppName = "ambient-mixer"
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 44100
	}
	if c.BufferMS <= 0 {
		c.BufferMS = 100
	}
	if c.PlayTimeoutMS <= 0 {
		c.PlayTimeoutMS = 2000
	}
	if c.DefaultVolume <= 0 || c.DefaultVolume > 100 {
		c.DefaultVolume = 50
	}
	if c.DuplicateNames == "" {
		c.DuplicateNames = DuplicateWarn
	}
	if c.ListenAddr == "" {
		c.ListenAddr = "127.0.0.1:8088"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFile == "" {
		c.LogFile = "~/.ambient-mixer/mixer.log"
	}
}

// Validate проверяет значения, которые нельзя исправить молча
func (c *Config) Validate() error {
	switch c.DuplicateNames {
	case DuplicateWarn, DuplicateBlock, DuplicateAllow:
	default:
		return fmt.Errorf("неверное значение duplicate_names: %q (ожидается warn, block или allow)", c.DuplicateNames)
	}
	return nil
}
