package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// framePath называет кадр по плейхеду, чтобы файлы сортировались по времени.
func framePath(dir string, playheadMs int64) string {
	return filepath.Join(dir, fmt.Sprintf("frame_%08d.png", playheadMs))
}

// stillPath задаёт путь по умолчанию для одиночного кадра.
func stillPath(dir string, playheadMs int64, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("frame_%dms_%s.png", playheadMs, at.Format("2006-01-02_15-04-05")))
}
