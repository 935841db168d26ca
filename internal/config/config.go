// Package config собирает настройки CLI: значения по умолчанию, YAML-файл
// (-config) и флаги командной строки, которые перекрывают файл.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/nle/internal/compositor"
	"github.com/ivlev/nle/internal/media"
	"github.com/ivlev/nle/internal/system"
)

type Config struct {
	ProjectPath     string        `yaml:"project"`
	ProjectsDir     string        `yaml:"projects_dir" validate:"required"`
	MediaDir        string        `yaml:"media_dir" validate:"required"`
	OutputDir       string        `yaml:"output_dir" validate:"required"`
	OutputPath      string        `yaml:"output"`
	PlayheadMs      int64         `yaml:"playhead_ms" validate:"gte=0"`
	PlayDuration    time.Duration `yaml:"play_duration" validate:"gte=0"`
	FPS             int           `yaml:"fps" validate:"gte=0,lte=240"`
	SeekTimeout     time.Duration `yaml:"seek_timeout" validate:"gte=0"`
	SeekConcurrency int           `yaml:"seek_concurrency" validate:"gte=1,lte=64"`
	Debug           bool          `yaml:"debug"`
	LogLevel        string        `yaml:"log_level" validate:"oneof=trace debug info warn warning error"`
	JSONLogs        bool          `yaml:"json_logs"`
	PDFDPI          float64       `yaml:"pdf_dpi" validate:"gt=0,lte=1200"`
	PageDuration    time.Duration `yaml:"page_duration" validate:"gt=0"`
	SequenceFPS     int           `yaml:"sequence_fps" validate:"gt=0,lte=240"`

	// Действия CLI, только из флагов.
	ConfigPath string `yaml:"-"`
	Init       bool   `yaml:"-"`
	Demo       bool   `yaml:"-"`
	Play       bool   `yaml:"-"`
	ShowStats  bool   `yaml:"-"`
}

// Default возвращает встроенные настройки.
func Default() Config {
	return Config{
		ProjectsDir:     "projects",
		MediaDir:        "input/media",
		OutputDir:       "output",
		SeekTimeout:     2 * time.Second,
		SeekConcurrency: system.DefaultSeekConcurrency(),
		LogLevel:        "info",
		PDFDPI:          96,
		PageDuration:    5 * time.Second,
		SequenceFPS:     30,
	}
}

var validate = validator.New()

// Validate проверяет диапазоны полей.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// LoadFile накладывает YAML-файл path поверх base. Неизвестные ключи считаются ошибкой.
func LoadFile(path string, base Config) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return base, err
	}
	defer f.Close()

	cfg := base
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return base, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse собирает итоговую конфигурацию из args (без имени программы).
// Приоритет: явные флаги, затем файл -config, затем Default().
func Parse(name string, args []string) (Config, error) {
	// Первый проход только ради -config. Ошибки флагов печатает он же,
	// второй проход идёт по уже проверенным аргументам.
	pre := Default()
	fs := newFlagSet(name, &pre)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	base := Default()
	if pre.ConfigPath != "" {
		var err error
		if base, err = LoadFile(pre.ConfigPath, base); err != nil {
			return Config{}, err
		}
	}

	cfg := base
	fs = newFlagSet(name, &cfg)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.ConfigPath = pre.ConfigPath

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newFlagSet(name string, c *Config) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	fs.StringVar(&c.ConfigPath, "config", c.ConfigPath, "YAML-файл с настройками (флаги имеют приоритет)")
	fs.StringVar(&c.ProjectPath, "project", c.ProjectPath, "Путь к проекту (по умолчанию: самый свежий в -projects)")
	fs.StringVar(&c.ProjectsDir, "projects", c.ProjectsDir, "Папка проектов")
	fs.StringVar(&c.MediaDir, "media", c.MediaDir, "Папка с медиафайлами (PDF, изображения, аудио)")
	fs.StringVar(&c.OutputDir, "output-dir", c.OutputDir, "Папка для кадров")
	fs.StringVar(&c.OutputPath, "output", c.OutputPath, "PNG для одиночного кадра (если пусто, генерируется в -output-dir)")
	fs.Int64Var(&c.PlayheadMs, "at", c.PlayheadMs, "Позиция плейхеда в мс")
	fs.DurationVar(&c.PlayDuration, "play-duration", c.PlayDuration, "Длительность воспроизведения (0 = до конца проекта)")
	fs.IntVar(&c.FPS, "fps", c.FPS, "FPS воспроизведения (0 = из настроек проекта)")
	fs.DurationVar(&c.SeekTimeout, "seek-timeout", c.SeekTimeout, "Таймаут перемотки одного источника")
	fs.IntVar(&c.SeekConcurrency, "seek-workers", c.SeekConcurrency, "Параллельные перемотки")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "QR-код с таймкодом поверх кадра")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Уровень логов: trace, debug, info, warn, error")
	fs.BoolVar(&c.JSONLogs, "json-logs", c.JSONLogs, "Логи в JSON")
	fs.Float64Var(&c.PDFDPI, "dpi", c.PDFDPI, "DPI страниц PDF")
	fs.DurationVar(&c.PageDuration, "page-duration", c.PageDuration, "Длительность показа одной страницы PDF")
	fs.IntVar(&c.SequenceFPS, "sequence-fps", c.SequenceFPS, "FPS папок с последовательностью изображений")

	fs.BoolVar(&c.Init, "init", c.Init, "Создать пустой проект")
	fs.BoolVar(&c.Demo, "demo", c.Demo, "Создать проект из содержимого -media")
	fs.BoolVar(&c.Play, "play", c.Play, "Воспроизвести проект в последовательность PNG")
	fs.BoolVar(&c.ShowStats, "stats", c.ShowStats, "Показать статистику системы")
	return fs
}

// Media возвращает опции для media.NewPool.
func (c Config) Media() media.Options {
	return media.Options{
		PDFDPI:       c.PDFDPI,
		PageDuration: c.PageDuration,
		SequenceFPS:  c.SequenceFPS,
	}
}

// Compositor возвращает опции для compositor.New.
func (c Config) Compositor() compositor.Options {
	return compositor.Options{
		SeekTimeout:     c.SeekTimeout,
		SeekConcurrency: c.SeekConcurrency,
		Debug:           c.Debug,
	}
}

// NewLogger создаёт логгер процесса. Логи пишутся в stderr, чтобы прогресс
// в stdout оставался читаемым. Неизвестный уровень заменяется на info.
func NewLogger(level string, json bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if json {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
