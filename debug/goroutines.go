package debug

// Goroutine and stack usage logger, started only when config.Debug is true.
// Used to rule out leaked prediction workers when images are skipped quickly.

import (
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"

	"github.com/dustin/go-humanize"
)

// StartGoroutineLogger logs goroutine count and stack memory every interval
// until stop is closed.
func StartGoroutineLogger(interval time.Duration, logger *slog.Logger, stop <-chan struct{}) {
	if interval <= 0 {
		interval = time.Second
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
		for {
			select {
			case <-stop:
				return
			case <-t.C:
			}
			metrics.Read(samples)
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			logger.Info("goroutine-stacks",
				slog.Uint64("goroutines", samples[0].Value.Uint64()),
				slog.String("stack_inuse", humanize.Bytes(ms.StackInuse)),
				slog.String("stack_sys", humanize.Bytes(ms.StackSys)),
				slog.String("heap_alloc", humanize.Bytes(ms.HeapAlloc)),
			)
		}
	}()
}
