package runner

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/sync/errgroup"

	"github.com/jonmartinstorm/slsnusern/internal/config"
)

// repoTimeout er maksimal tid per repo. Store repoer med mange
// konfigfiler kan trenge flere titalls API-kall.
const repoTimeout = 5 * time.Minute

// debugRepoCap begrenser antall repoer i debug-modus.
const debugRepoCap = 10

type App struct {
	Cfg       config.Config
	Harvester Harvester
	Writer    RecordWriter
}

func NewApp(cfg config.Config, harvester Harvester, writer RecordWriter) *App {
	return &App{
		Cfg:       cfg,
		Harvester: harvester,
		Writer:    writer,
	}
}

// Run leser URL-listen og høster alle repoene med cfg.Parallelism
// samtidige arbeidere. Et repo som feiler hoppes over, resten
// fortsetter.
func (a *App) Run(ctx context.Context) error {
	urls, err := ReadURLList(a.Cfg.InputPath)
	if err != nil {
		return fmt.Errorf("klarte ikke å lese URL-listen: %w", err)
	}

	if a.Cfg.Debug && len(urls) > debugRepoCap {
		slog.Debug("Debug-modus, kutter URL-listen", "beholder", debugRepoCap)
		urls = urls[:debugRepoCap]
	}

	slog.Info("🔁 Starter høsting", "antall_repos", len(urls), "parallelism", a.Cfg.Parallelism)

	bar := pb.Full.Start(len(urls))
	bar.SetWriter(os.Stderr)
	defer bar.Finish()

	var (
		mu      sync.Mutex
		written int
		skipped int
	)

	g := new(errgroup.Group)
	g.SetLimit(a.Cfg.Parallelism)

	for _, rawURL := range urls {
		g.Go(func() error {
			defer bar.Increment()

			if err := ctx.Err(); err != nil {
				return err
			}

			repoCtx, cancel := context.WithTimeout(ctx, repoTimeout)
			defer cancel()

			record := a.Harvester.ProcessRepo(repoCtx, rawURL)
			if record == nil {
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if err := a.Writer.WriteRecord(ctx, record); err != nil {
				slog.Warn("Klarte ikke å skrive post", "repo", record.Repository, "error", err)
				skipped++
				return nil
			}
			written++
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("✅ Ferdig med høsting",
		"totalt", len(urls),
		"skrevet", written,
		"hoppet_over", skipped)
	return nil
}

// ReadURLList leser én repo-URL per linje og hopper over blanke linjer.
func ReadURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return urls, nil
}
