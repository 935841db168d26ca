package system

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// MaxSeekConcurrency ограничивает число параллельных перемоток по умолчанию.
const MaxSeekConcurrency = 8

// HostStats описывает машину, на которой идёт превью.
type HostStats struct {
	LogicalCPUs     int
	PhysicalCPUs    int
	TotalMemory     uint64
	AvailableMemory uint64
	MemoryUsed      float64 // проценты
	Pool            PoolStats
}

// ReadHostStats читает счётчики CPU и памяти через gopsutil.
func ReadHostStats(ctx context.Context) (HostStats, error) {
	var s HostStats
	var err error

	if s.LogicalCPUs, err = cpu.CountsWithContext(ctx, true); err != nil {
		return s, fmt.Errorf("logical cpu count: %w", err)
	}
	if s.PhysicalCPUs, err = cpu.CountsWithContext(ctx, false); err != nil {
		return s, fmt.Errorf("physical cpu count: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return s, fmt.Errorf("virtual memory: %w", err)
	}
	s.TotalMemory = vm.Total
	s.AvailableMemory = vm.Available
	s.MemoryUsed = vm.UsedPercent
	s.Pool = Stats()
	return s, nil
}

// DefaultSeekConcurrency выводит число параллельных перемоток из числа логических CPU.
func DefaultSeekConcurrency() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	return clampConcurrency(n)
}

func clampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxSeekConcurrency {
		return MaxSeekConcurrency
	}
	return n
}

// String форматирует отчёт, который печатает -stats.
func (s HostStats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CPU:     %d logical / %d physical\n", s.LogicalCPUs, s.PhysicalCPUs)
	fmt.Fprintf(&b, "Memory:  %s available of %s (%.1f%% used)\n", FormatBytes(s.AvailableMemory), FormatBytes(s.TotalMemory), s.MemoryUsed)
	fmt.Fprintf(&b, "Buffers: %d gets, %d allocations, %d returns", s.Pool.Gets, s.Pool.Allocs, s.Pool.Puts)
	return b.String()
}

// FormatBytes печатает n с двоичным суффиксом единиц.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
