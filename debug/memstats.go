package debug

// Memory/RSS periodic logger enabled when config.Debug is true.
// Logs process RSS and VMS along with Go heap stats to correlate native vs
// heap growth (Tk photos and captured frames live outside the Go heap).

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// StartMemLogger logs memory stats every interval until ctx is done. It is
// best-effort; failures to query the process are logged once and suppressed.
func StartMemLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	logger = logger.With("component", "debug")
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		logger.Warn("memlog: process handle unavailable", slog.String("err", err.Error()))
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var rssErrLogged bool
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			var rss, vms uint64
			if proc != nil {
				if info, err := proc.MemoryInfoWithContext(ctx); err == nil {
					rss, vms = info.RSS, info.VMS
				} else if !rssErrLogged {
					logger.Warn("memlog: memory info query failed", slog.String("err", err.Error()))
					rssErrLogged = true
				}
			}
			logger.Info("memstats",
				slog.Int("goroutines", runtime.NumGoroutine()),
				slog.Uint64("heap_alloc", ms.HeapAlloc),
				slog.Uint64("heap_inuse", ms.HeapInuse),
				slog.Uint64("heap_idle", ms.HeapIdle),
				slog.Uint64("heap_sys", ms.HeapSys),
				slog.Uint64("next_gc", ms.NextGC),
				slog.Uint64("rss", rss),
				slog.Uint64("vms", vms),
				slog.Uint64("num_gc", uint64(ms.NumGC)),
			)
		}
	}()
}
