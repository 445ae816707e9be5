package debug

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
)

// StartMemLogger logs Go heap statistics and the process resident set size
// every interval until stop is closed. Decoded images and Tk photos are the
// main memory consumers; a growing RSS with a flat heap points at photos
// that were never deleted.
func StartMemLogger(interval time.Duration, logger *slog.Logger, stop <-chan struct{}) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var rssErrLogged bool
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			rss, err := residentSetSize()
			if err != nil && !rssErrLogged {
				logger.Warn("memlog: rss query failed", slog.String("err", err.Error()))
				rssErrLogged = true
			}
			logger.Info("memstats",
				slog.Int("goroutines", runtime.NumGoroutine()),
				slog.String("heap_alloc", humanize.Bytes(ms.HeapAlloc)),
				slog.String("heap_inuse", humanize.Bytes(ms.HeapInuse)),
				slog.String("heap_idle", humanize.Bytes(ms.HeapIdle)),
				slog.String("heap_sys", humanize.Bytes(ms.HeapSys)),
				slog.String("next_gc", humanize.Bytes(ms.NextGC)),
				slog.String("rss", humanize.Bytes(rss)),
				slog.Uint64("num_gc", uint64(ms.NumGC)),
			)
		}
	}()
}
