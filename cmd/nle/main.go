package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/nle/internal/compositor"
	"github.com/ivlev/nle/internal/config"
	"github.com/ivlev/nle/internal/engine"
	"github.com/ivlev/nle/internal/media"
	"github.com/ivlev/nle/internal/project"
	"github.com/ivlev/nle/internal/store"
	"github.com/ivlev/nle/internal/system"
)

func main() {
	cfg, err := config.Parse(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] Ошибка конфигурации: %v\n", err)
		os.Exit(2)
	}

	logger := config.NewLogger(cfg.LogLevel, cfg.JSONLogs)
	log := logrus.NewEntry(logger)

	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits(log)

	if err := system.EnsureDirs(cfg.ProjectsDir, cfg.MediaDir, cfg.OutputDir); err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Entry) error {
	if cfg.ShowStats {
		stats, err := system.ReadHostStats(ctx)
		if err != nil {
			return err
		}
		fmt.Print(stats.String())
		return nil
	}

	if cfg.Init || cfg.Demo {
		return create(cfg, log)
	}

	p := open(cfg, log)
	fmt.Printf("[*] Проект: %s (%d дорожек, %s)\n", p.Name, len(p.Tracks), compositor.FormatTimecode(p.DurationMs()))

	pool := media.NewPool(log, media.DirRepository{Root: cfg.MediaDir}, cfg.Media())
	defer pool.Close()
	pool.Sync(p)
	if err := pool.PreloadProject(ctx, p); err != nil {
		fmt.Printf("[!] Часть медиа не открылась, слои будут пропущены: %v\n", err)
	}

	comp := compositor.New(log, cfg.Compositor())
	if cfg.Play {
		return play(ctx, cfg, log, p, comp, pool)
	}
	return still(ctx, cfg, log, p, comp, pool)
}

func create(cfg config.Config, log *logrus.Entry) error {
	path := cfg.ProjectPath
	if path == "" {
		path = store.GenerateProjectPath(cfg.ProjectsDir)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var (
		p   project.Project
		err error
	)
	if cfg.Demo {
		resources, scanErr := media.DirRepository{Root: cfg.MediaDir}.Scan(cfg.Media())
		if scanErr != nil {
			return scanErr
		}
		if len(resources) == 0 {
			fmt.Printf("[!] В папке %s нет медиафайлов, проект будет только с титром\n", cfg.MediaDir)
		}
		p, err = newDemoProject(name, resources)
	} else {
		p, err = newEmptyProject(name)
	}
	if err != nil {
		log.WithField("code", project.CodeOf(err)).Debug(project.CodeOf(err).Hint())
		return err
	}

	if err := store.Save(p, path); err != nil {
		return err
	}
	fmt.Printf("[+++] Проект создан: %s (%d ресурсов, %s)\n", path, len(p.Resources), compositor.FormatTimecode(p.DurationMs()))
	return nil
}

func open(cfg config.Config, log *logrus.Entry) project.Project {
	path := cfg.ProjectPath
	if path == "" {
		latest, err := store.FindLatestProject(cfg.ProjectsDir)
		if err != nil {
			fmt.Printf("[!] %v. Создайте проект: -init или -demo\n", err)
			return store.LoadOrDefault(log, "")
		}
		path = latest
		fmt.Printf("[*] Выбран проект: %s\n", path)
	}
	return store.LoadOrDefault(log, path)
}

func still(ctx context.Context, cfg config.Config, log *logrus.Entry, p project.Project, comp *compositor.Compositor, pool *media.Pool) error {
	out := cfg.OutputPath
	if out == "" {
		out = stillPath(cfg.OutputDir, cfg.PlayheadMs, time.Now())
	}

	var written atomic.Bool
	present := func(f *engine.Frame) {
		defer f.Release()
		if f.Err != nil {
			fmt.Printf("[!] Кадр %s отрисован не полностью: %v\n", compositor.FormatTimecode(f.PlayheadMs), f.Err)
		}
		if err := writePNG(out, f.Image); err != nil {
			log.WithError(err).Warn("[!] Не удалось сохранить кадр")
			return
		}
		written.Store(true)
	}

	pv := engine.NewPreview(log, p, comp, pool, compositor.ClearBackground, present)
	defer pv.Close()

	pv.SeekTo(cfg.PlayheadMs)
	if err := pv.Coordinator().WaitIdle(ctx); err != nil {
		return err
	}
	if !written.Load() {
		return fmt.Errorf("кадр %d мс не сохранён", cfg.PlayheadMs)
	}
	fmt.Printf("[+++] Успех! Кадр: %s\n", out)
	return nil
}

func play(ctx context.Context, cfg config.Config, log *logrus.Entry, p project.Project, comp *compositor.Compositor, pool *media.Pool) error {
	fps := cfg.FPS
	if fps <= 0 {
		fps = p.Settings.FPS
	}
	start := cfg.PlayheadMs
	end := p.DurationMs()
	if cfg.PlayDuration > 0 {
		end = start + cfg.PlayDuration.Milliseconds()
	}
	if end <= start {
		return fmt.Errorf("нечего воспроизводить: проект заканчивается на %s", compositor.FormatTimecode(end))
	}

	dir := filepath.Join(cfg.OutputDir, "play_"+time.Now().Format("2006-01-02_15-04-05"))
	if err := system.EnsureDirs(dir); err != nil {
		return err
	}

	var degraded atomic.Int64
	present := func(f *engine.Frame) {
		defer f.Release()
		if f.Err != nil {
			degraded.Add(1)
		}
		if err := writePNG(framePath(dir, f.PlayheadMs), f.Image); err != nil {
			log.WithError(err).WithField("playhead_ms", f.PlayheadMs).Warn("[!] Не удалось сохранить кадр")
		}
	}

	pv := engine.NewPreview(log, p, comp, pool, compositor.ClearBackground, present)
	defer pv.Close()

	fmt.Printf("[*] Воспроизведение %s → %s при %d FPS\n", compositor.FormatTimecode(start), compositor.FormatTimecode(end), fps)
	began := time.Now()
	clock := engine.Clock{FPS: fps}
	if err := clock.Run(ctx, start, end, pv.SeekTo); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	// Последний кадр после остановки часов.
	pv.SeekTo(end - 1)
	if err := pv.Coordinator().WaitIdle(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	s := pv.Coordinator().Stats()
	fmt.Printf("[+++] Готово за %v: запрошено %d, показано %d, устарело %d, ошибок %d, неполных %d\n",
		time.Since(began).Round(time.Millisecond), s.Requested, s.Presented, s.Stale, s.Failed, degraded.Load())
	fmt.Printf("[*] Кадры: %s\n", dir)
	return nil
}
