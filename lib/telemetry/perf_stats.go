package telemetry

import (
	"context"
	"log/slog"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("go.perf_stats")
var cpuGauge, _ = meter.Float64Gauge("cpu_usage")
var memoryGauge, _ = meter.Int64Gauge("allocated_mb")
var rssGauge, _ = meter.Int64Gauge("rss_mb")
var liveObjectsGauge, _ = meter.Int64Gauge("live_objects")
var goroutineGauge, _ = meter.Int64Gauge("goroutine_count")

// PerfStats is one sample of the resource usage of the process.
type PerfStats struct {
	CpuPercent  float64
	AllocatedMb int64
	RssMb       int64
	LiveObjects int64
	Goroutines  int64
}

// RecordPerfStats samples resource usage, records it on the perf gauges and
// returns it. It is called once per listing page, a browser run is long
// enough that a background ticker is not needed.
func RecordPerfStats(ctx context.Context) PerfStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := PerfStats{
		AllocatedMb: int64(memStats.Alloc / 1_000_000),
		LiveObjects: int64(memStats.Mallocs) - int64(memStats.Frees),
		Goroutines:  int64(runtime.NumGoroutine()),
	}

	// a zero interval compares against the previous call
	cpuUsage, err := cpu.PercentWithContext(ctx, 0, false)
	if err == nil && len(cpuUsage) > 0 {
		stats.CpuPercent = cpuUsage[0]
		cpuGauge.Record(ctx, stats.CpuPercent)
	} else if err != nil {
		slog.Debug("failed to read cpu usage", "err", err.Error())
	}

	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err == nil {
		mem, err := proc.MemoryInfoWithContext(ctx)
		if err == nil {
			stats.RssMb = int64(mem.RSS / 1_000_000)
			rssGauge.Record(ctx, stats.RssMb)
		}
	}

	memoryGauge.Record(ctx, stats.AllocatedMb)
	liveObjectsGauge.Record(ctx, stats.LiveObjects)
	goroutineGauge.Record(ctx, stats.Goroutines)

	return stats
}
