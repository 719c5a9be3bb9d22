package runner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/jonmartinstorm/slsnusern/internal/config"
)

// RunApp kjører hele høstingen og logger varighet og minnebruk.
func RunApp(ctx context.Context, cfg config.Config, harvester Harvester, writer RecordWriter) error {
	start := time.Now()

	app := NewApp(cfg, harvester, writer)
	if err := app.Run(ctx); err != nil {
		slog.Debug("Runner feilet", "error", err)
		return err
	}

	LogMemoryStats()
	slog.Info("Ferdig!", "varighet", time.Since(start).String())
	return nil
}

func LogMemoryStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	slog.Debug("Minnebruk",
		"alloc", ByteSize(m.Alloc),
		"totalAlloc", ByteSize(m.TotalAlloc),
		"sys", ByteSize(m.Sys),
		"numGC", m.NumGC)
}

func ByteSize(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := unit, 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
