// Package metrics 提供压测运行时指标采集与报告输出
package metrics

import (
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"
)

// Snapshot 运行时指标快照
type Snapshot struct {
	TS           time.Time
	HeapAlloc    uint64
	HeapInuse    uint64
	TotalAlloc   uint64
	Mallocs      uint64
	NumGC        uint32
	NumGoroutine int
}

// Take 采集当前运行时指标
func Take() Snapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Snapshot{
		TS:           time.Now(),
		HeapAlloc:    m.HeapAlloc,
		HeapInuse:    m.HeapInuse,
		TotalAlloc:   m.TotalAlloc,
		Mallocs:      m.Mallocs,
		NumGC:        m.NumGC,
		NumGoroutine: runtime.NumGoroutine(),
	}
}

// GC 触发 GC 并释放回 OS，使建树前后的快照可比
func GC() {
	runtime.GC()
	debug.FreeOSMemory()
}

// Delta 两次快照之间的差值
type Delta struct {
	Elapsed    time.Duration
	AllocBytes uint64 // 累计分配字节（TotalAlloc 差）
	Allocs     uint64
	GCs        uint32
	HeapGrowth int64
}

// Diff 计算 before→after 的分配量与 GC 次数差
func Diff(before, after Snapshot) Delta {
	d := Delta{
		Elapsed:    after.TS.Sub(before.TS),
		HeapGrowth: int64(after.HeapAlloc) - int64(before.HeapAlloc),
	}
	if after.TotalAlloc >= before.TotalAlloc {
		d.AllocBytes = after.TotalAlloc - before.TotalAlloc
	}
	if after.Mallocs >= before.Mallocs {
		d.Allocs = after.Mallocs - before.Mallocs
	}
	if after.NumGC >= before.NumGC {
		d.GCs = after.NumGC - before.NumGC
	}
	return d
}

// AllocsPerOp 平均每次操作的分配次数
func (d Delta) AllocsPerOp(ops int) float64 {
	if ops <= 0 {
		return 0
	}
	return float64(d.Allocs) / float64(ops)
}

// LogValue implements slog.LogValuer.
func (d Delta) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("elapsed", d.Elapsed),
		slog.Uint64("alloc_bytes", d.AllocBytes),
		slog.Uint64("allocs", d.Allocs),
		slog.Int64("heap_growth", d.HeapGrowth),
		slog.Uint64("gcs", uint64(d.GCs)),
	)
}
