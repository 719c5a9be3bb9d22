// slsstats leser et høstet JSONL-datasett og oppsummerer fordelingen av
// providere, runtimes, plugins og eventtyper. Resultatet skrives både
// som tabeller til konsollen og som CSV-filer for videre analyse.
package main

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/jonmartinstorm/slsnusern/internal/logger"
	"github.com/jonmartinstorm/slsnusern/internal/models"
	"github.com/jonmartinstorm/slsnusern/internal/parser"
)

type stats struct {
	Providers map[string]int
	Runtimes  map[string]int
	Plugins   map[string]int
	Events    map[string]int
}

func main() {
	input := flag.String("input", "repository_metadata.jsonl", "JSONL-fil fra slsnusern")
	outdir := flag.String("outdir", "stats", "katalog for CSV-filene")
	debug := flag.Bool("debug", false, "debug-logging")
	flag.Parse()

	logger.Setup(*debug)

	s, repos, err := collect(*input)
	if err != nil {
		slog.Error("Klarte ikke å lese datasettet", "input", *input, "error", err)
		os.Exit(1)
	}
	slog.Info("Datasett lest", "repos", repos)

	if err := os.MkdirAll(*outdir, 0o750); err != nil {
		slog.Error("Klarte ikke å opprette utkatalog", "outdir", *outdir, "error", err)
		os.Exit(1)
	}

	tables := []struct {
		name   string
		header string
		counts map[string]int
	}{
		{"providers", "provider", s.Providers},
		{"runtimes", "runtime", s.Runtimes},
		{"plugins", "plugin", s.Plugins},
		{"events", "event", s.Events},
	}

	for _, t := range tables {
		printTable(t.header, t.counts)
		path := filepath.Join(*outdir, t.name+".csv")
		if err := writeCSV(path, t.header, t.counts); err != nil {
			slog.Error("Klarte ikke å skrive CSV", "fil", path, "error", err)
			os.Exit(1)
		}
		slog.Info("CSV skrevet", "fil", path)
	}
}

// collect teller forekomster på tvers av alle konfigfiler i datasettet.
func collect(path string) (stats, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return stats{}, 0, err
	}
	defer f.Close()

	s := stats{
		Providers: map[string]int{},
		Runtimes:  map[string]int{},
		Plugins:   map[string]int{},
		Events:    map[string]int{},
	}

	repos := 0
	scanner := bufio.NewScanner(f)
	// Enkelte poster har store languages_bytes- og tags-felt.
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record models.RepositoryRecord
		if err := json.Unmarshal(line, &record); err != nil {
			slog.Warn("Hopper over ugyldig JSONL-linje", "error", err)
			continue
		}
		repos++
		for _, cf := range record.ServerlessConfig {
			if cf.Config == nil {
				continue
			}
			s.Providers[cf.Config.ProviderName]++
			for _, rt := range cf.Config.Runtimes {
				if rt == nil {
					s.Runtimes["unknown"]++
				} else {
					s.Runtimes[*rt]++
				}
			}
			for _, p := range cf.Config.Plugins {
				s.Plugins[p]++
			}
			for _, ev := range parser.ExtractFunctionEvents(cf.Config.Events) {
				s.Events[ev.Event]++
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats{}, 0, err
	}
	return s, repos, nil
}

// sortedByCount gir nøklene sortert synkende på antall, alfabetisk ved likhet.
func sortedByCount(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func printTable(header string, counts map[string]int) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{header, "antall"})
	for _, k := range sortedByCount(counts) {
		table.Append([]string{k, strconv.Itoa(counts[k])})
	}
	table.SetFooter([]string{"totalt", strconv.Itoa(total(counts))})
	table.Render()
	fmt.Println()
}

func writeCSV(path, header string, counts map[string]int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{header, "count"}); err != nil {
		return err
	}
	for _, k := range sortedByCount(counts) {
		if err := w.Write([]string{k, strconv.Itoa(counts[k])}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func total(counts map[string]int) int {
	sum := 0
	for _, n := range counts {
		sum += n
	}
	return sum
}
