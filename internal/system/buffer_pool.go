package system

import (
	"image"
	"image/draw"
	"sync"
	"sync/atomic"
)

// ImagePool переиспользует *image.RGBA одинакового размера, чтобы снизить
// нагрузку на GC. Из пула берутся холсты, кадры координатора и буферы текста.
type ImagePool struct {
	mu    sync.RWMutex
	pools map[image.Rectangle]*sync.Pool

	gets   atomic.Int64
	allocs atomic.Int64
	puts   atomic.Int64
}

// PoolStats хранит снимок счётчиков пула.
type PoolStats struct {
	Gets   int64
	Allocs int64
	Puts   int64
}

// NewImagePool создаёт пустой пул.
func NewImagePool() *ImagePool {
	return &ImagePool{pools: make(map[image.Rectangle]*sync.Pool)}
}

var globalPool = NewImagePool()

// GetImage берёт буфер из общего пула. Содержимое не определено.
func GetImage(rect image.Rectangle) *image.RGBA { return globalPool.Get(rect) }

// GetClearImage берёт из общего пула полностью прозрачный буфер.
func GetClearImage(rect image.Rectangle) *image.RGBA { return globalPool.GetClear(rect) }

// PutImage возвращает буфер в общий пул.
func PutImage(img *image.RGBA) { globalPool.Put(img) }

// CloneImage копирует src в буфер из пула с теми же границами.
func CloneImage(src image.Image) *image.RGBA { return globalPool.Clone(src) }

// Stats возвращает счётчики общего пула.
func Stats() PoolStats { return globalPool.Stats() }

func (p *ImagePool) pool(rect image.Rectangle) *sync.Pool {
	p.mu.RLock()
	pool, exists := p.pools[rect]
	p.mu.RUnlock()
	if exists {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Повторная проверка
	if pool, exists = p.pools[rect]; exists {
		return pool
	}
	pool = &sync.Pool{
		New: func() any {
			p.allocs.Add(1)
			return image.NewRGBA(rect)
		},
	}
	p.pools[rect] = pool
	return pool
}

// Get возвращает буфер с границами rect. Содержимое не определено.
func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	p.gets.Add(1)
	return p.pool(rect).Get().(*image.RGBA)
}

// GetClear возвращает буфер с границами rect, все пиксели прозрачные.
func (p *ImagePool) GetClear(rect image.Rectangle) *image.RGBA {
	img := p.Get(rect)
	clear(img.Pix)
	return img
}

// Put возвращает img в пул. Пустые изображения отбрасываются.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil || img.Rect.Empty() {
		return
	}
	p.puts.Add(1)
	p.pool(img.Rect).Put(img)
}

// Clone копирует src в буфер из пула с теми же границами.
func (p *ImagePool) Clone(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := p.Get(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

func (p *ImagePool) Stats() PoolStats {
	return PoolStats{Gets: p.gets.Load(), Allocs: p.allocs.Load(), Puts: p.puts.Load()}
}
