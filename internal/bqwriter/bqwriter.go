package bqwriter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/jonmartinstorm/slsnusern/internal/config"
	"github.com/jonmartinstorm/slsnusern/internal/dbwriter"
	"github.com/jonmartinstorm/slsnusern/internal/models"
	"github.com/jonmartinstorm/slsnusern/internal/parser"
)

type BigQueryWriter struct {
	Client  *bigquery.Client
	Dataset string
	now     func() time.Time
}

func New(ctx context.Context, cfg *config.Config) (*BigQueryWriter, error) {
	var opts []option.ClientOption
	if cfg.BQCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.BQCredentials))
	}

	client, err := bigquery.NewClient(ctx, cfg.BQProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("kan ikke opprette BigQuery-klient: %w", err)
	}

	// Sørg for at hver tabell finnes
	tables := map[string]any{
		"repos":                BQRepo{},
		"repo_languages":       BQRepoLanguage{},
		"repo_config_files":    BQConfigFile{},
		"repo_function_events": BQFuncEvent{},
	}
	for tableName, schemaExample := range tables {
		if err := ensureTableExists(ctx, client, cfg.BQDataset, tableName, schemaExample); err != nil {
			return nil, fmt.Errorf("kunne ikke sikre tabell %s: %w", tableName, err)
		}
	}

	return &BigQueryWriter{
		Client:  client,
		Dataset: cfg.BQDataset,
		now:     time.Now,
	}, nil
}

func (w *BigQueryWriter) WriteRecord(ctx context.Context, record *models.RepositoryRecord) error {
	snapshot := w.now()

	repo := ConvertRepo(record, snapshot)
	langs := ConvertLanguages(record, snapshot)
	files, events := ConvertConfigFiles(record, snapshot)

	if err := insert(ctx, w.Client, w.Dataset, "repos", []BQRepo{repo}); err != nil {
		return fmt.Errorf("repos insert feilet: %w", err)
	}
	if err := insert(ctx, w.Client, w.Dataset, "repo_languages", langs); err != nil {
		return fmt.Errorf("repo_languages insert feilet: %w", err)
	}
	if err := insert(ctx, w.Client, w.Dataset, "repo_config_files", files); err != nil {
		return fmt.Errorf("repo_config_files insert feilet: %w", err)
	}
	if err := insert(ctx, w.Client, w.Dataset, "repo_function_events", events); err != nil {
		return fmt.Errorf("repo_function_events insert feilet: %w", err)
	}
	return nil
}

func (w *BigQueryWriter) Close() error {
	return w.Client.Close()
}

func insert[T any](ctx context.Context, client *bigquery.Client, dataset, table string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	inserter := client.Dataset(dataset).Table(table).Inserter()
	return inserter.Put(ctx, rows)
}

func ensureTableExists(ctx context.Context, client *bigquery.Client, dataset, table string, schemaExample any) error {
	schema, err := bigquery.InferSchema(schemaExample)
	if err != nil {
		return fmt.Errorf("kunne ikke utlede skjema for %s: %w", table, err)
	}

	ref := client.Dataset(dataset).Table(table)
	err = ref.Create(ctx, &bigquery.TableMetadata{Schema: schema})
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
		// Tabellen finnes allerede.
		return nil
	}
	return err
}

// ==== Data-strukturer ====

type BQRepo struct {
	HentetDato       time.Time         `bigquery:"hentet_dato"`
	Repository       string            `bigquery:"repository"`
	URL              string            `bigquery:"url"`
	SizeKB           int               `bigquery:"size_kb"`
	Forks            int               `bigquery:"forks"`
	Stars            int               `bigquery:"stars"`
	Watchers         int               `bigquery:"watchers"`
	OpenIssues       int               `bigquery:"open_issues"`
	PrimaryLanguage  string            `bigquery:"primary_language"`
	Topics           string            `bigquery:"topics"`
	Archived         bool              `bigquery:"archived"`
	Disabled         bool              `bigquery:"disabled"`
	Visibility       string            `bigquery:"visibility"`
	IsFork           bool              `bigquery:"is_fork"`
	LastCommitDate   string            `bigquery:"last_commit_date"`
	RepoCreatedAt    string            `bigquery:"repo_created_at"`
	RepoUpdatedAt    string            `bigquery:"repo_updated_at"`
	LicenseName      string            `bigquery:"license_name"`
	ContributorCount int               `bigquery:"contributor_count"`
	TagCount         int               `bigquery:"tag_count"`
	PVREnabled       bigquery.NullBool `bigquery:"pvr_enabled"`
}

type BQRepoLanguage struct {
	HentetDato time.Time `bigquery:"hentet_dato"`
	Repository string    `bigquery:"repository"`
	Language   string    `bigquery:"language"`
	Bytes      int64     `bigquery:"bytes"`
}

type BQConfigFile struct {
	HentetDato   time.Time `bigquery:"hentet_dato"`
	Repository   string    `bigquery:"repository"`
	Path         string    `bigquery:"path"`
	ProviderName string    `bigquery:"provider_name"`
	Runtimes     string    `bigquery:"runtimes"`
	Plugins      string    `bigquery:"plugins"`
	ParseError   string    `bigquery:"parse_error"`
}

type BQFuncEvent struct {
	HentetDato   time.Time `bigquery:"hentet_dato"`
	Repository   string    `bigquery:"repository"`
	ConfigPath   string    `bigquery:"config_path"`
	FunctionName string    `bigquery:"function_name"`
	Event        string    `bigquery:"event"`
}

// ==== Konvertering ====

func ConvertRepo(record *models.RepositoryRecord, snapshot time.Time) BQRepo {
	meta := record.GithubMetadata
	return BQRepo{
		HentetDato:       snapshot,
		Repository:       record.Repository,
		URL:              record.URL,
		SizeKB:           meta.SizeKB,
		Forks:            meta.Forks,
		Stars:            meta.Stars,
		Watchers:         record.WatchersCount,
		OpenIssues:       record.OpenIssuesCount,
		PrimaryLanguage:  meta.PrimaryLanguage,
		Topics:           strings.Join(meta.Topics, ","),
		Archived:         meta.Archived,
		Disabled:         meta.Disabled,
		Visibility:       meta.Visibility,
		IsFork:           record.IsFork,
		LastCommitDate:   record.LastCommitDate,
		RepoCreatedAt:    record.RepoCreatedAt,
		RepoUpdatedAt:    record.RepoUpdatedAt,
		LicenseName:      record.LicenseName,
		ContributorCount: meta.ContributorCount,
		TagCount:         meta.TagCount,
		PVREnabled:       nullBool(meta.PrivateVulnerabilityReportingEnabled),
	}
}

func ConvertLanguages(record *models.RepositoryRecord, snapshot time.Time) []BQRepoLanguage {
	langs := make([]BQRepoLanguage, 0, len(record.GithubMetadata.LanguagesBytes))
	for lang, bytes := range record.GithubMetadata.LanguagesBytes {
		langs = append(langs, BQRepoLanguage{
			HentetDato: snapshot,
			Repository: record.Repository,
			Language:   lang,
			Bytes:      bytes,
		})
	}
	return langs
}

func ConvertConfigFiles(record *models.RepositoryRecord, snapshot time.Time) ([]BQConfigFile, []BQFuncEvent) {
	var files []BQConfigFile
	var events []BQFuncEvent

	for _, cf := range record.ServerlessConfig {
		if cf.Config == nil {
			continue
		}
		files = append(files, BQConfigFile{
			HentetDato:   snapshot,
			Repository:   record.Repository,
			Path:         cf.Path,
			ProviderName: cf.Config.ProviderName,
			Runtimes:     dbwriter.JoinRuntimes(cf.Config.Runtimes),
			Plugins:      strings.Join(cf.Config.Plugins, ","),
			ParseError:   cf.Config.ParseError,
		})
		for _, pair := range parser.ExtractFunctionEvents(cf.Config.Events) {
			events = append(events, BQFuncEvent{
				HentetDato:   snapshot,
				Repository:   record.Repository,
				ConfigPath:   cf.Path,
				FunctionName: pair.Function,
				Event:        pair.Event,
			})
		}
	}
	return files, events
}

func nullBool(b *bool) bigquery.NullBool {
	if b == nil {
		return bigquery.NullBool{}
	}
	return bigquery.NullBool{Bool: *b, Valid: true}
}
