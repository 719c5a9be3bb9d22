package dbwriter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonmartinstorm/slsnusern/internal/models"
	"github.com/jonmartinstorm/slsnusern/internal/parser"
)

// PostgresWriter er et alternativ til JSONL-utdata for kjøringer som skal
// rett inn i en analysedatabase.
type PostgresWriter struct {
	DB  *sql.DB
	now func() time.Time
}

func New(postgresdsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", postgresdsn)
	if err != nil {
		slog.Error("Kunne ikke åpne PostgreSQL-database", "error", err)
		return nil, fmt.Errorf("kunne ikke åpne PostgreSQL-database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	return &PostgresWriter{
		DB:  db,
		now: time.Now,
	}, nil
}

// NewWithDB er for tester som stiller med egen databasetilkobling.
func NewWithDB(db *sql.DB) *PostgresWriter {
	return &PostgresWriter{DB: db, now: time.Now}
}

const schema = `
CREATE TABLE IF NOT EXISTS repos (
	id BIGSERIAL PRIMARY KEY,
	hentet_dato TIMESTAMPTZ NOT NULL,
	repository TEXT NOT NULL,
	url TEXT NOT NULL,
	size_kb INTEGER,
	forks INTEGER,
	stars INTEGER,
	watchers INTEGER,
	open_issues INTEGER,
	primary_language TEXT,
	topics TEXT,
	archived BOOLEAN,
	disabled BOOLEAN,
	visibility TEXT,
	is_fork BOOLEAN,
	last_commit_date TEXT,
	repo_created_at TEXT,
	repo_updated_at TEXT,
	license_name TEXT,
	contributor_count INTEGER,
	tag_count INTEGER,
	pvr_enabled BOOLEAN
);

CREATE TABLE IF NOT EXISTS repo_languages (
	repo_id BIGINT NOT NULL REFERENCES repos(id),
	language TEXT NOT NULL,
	bytes BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS repo_config_files (
	repo_id BIGINT NOT NULL REFERENCES repos(id),
	path TEXT NOT NULL,
	provider_name TEXT NOT NULL,
	runtimes TEXT,
	plugins TEXT,
	parse_error TEXT
);

CREATE TABLE IF NOT EXISTS repo_function_events (
	repo_id BIGINT NOT NULL REFERENCES repos(id),
	config_path TEXT NOT NULL,
	function_name TEXT NOT NULL,
	event TEXT NOT NULL
);
`

// EnsureSchema oppretter tabellene hvis de mangler. Kalles én gang ved
// oppstart, før første post.
func (p *PostgresWriter) EnsureSchema(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("kunne ikke opprette skjema: %w", err)
	}
	return nil
}

// WriteRecord skriver én post i én transaksjon. Feiler hele posten samlet,
// slik at databasen aldri får halve repos.
func (p *PostgresWriter) WriteRecord(ctx context.Context, record *models.RepositoryRecord) error {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start tx: %w", err)
	}

	meta := record.GithubMetadata

	var repoID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO repos (
			hentet_dato, repository, url, size_kb, forks, stars, watchers,
			open_issues, primary_language, topics, archived, disabled,
			visibility, is_fork, last_commit_date, repo_created_at,
			repo_updated_at, license_name, contributor_count, tag_count,
			pvr_enabled
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING id`,
		p.now(), record.Repository, record.URL, meta.SizeKB, meta.Forks,
		meta.Stars, record.WatchersCount, record.OpenIssuesCount,
		meta.PrimaryLanguage, strings.Join(meta.Topics, ","), meta.Archived,
		meta.Disabled, meta.Visibility, record.IsFork, record.LastCommitDate,
		record.RepoCreatedAt, record.RepoUpdatedAt, record.LicenseName,
		meta.ContributorCount, meta.TagCount,
		NullableBool(meta.PrivateVulnerabilityReportingEnabled),
	).Scan(&repoID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("insert repos feilet: %v (rollback feilet: %w)", err, rbErr)
		}
		return fmt.Errorf("insert repos feilet: %w", err)
	}

	for lang, bytes := range meta.LanguagesBytes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO repo_languages (repo_id, language, bytes) VALUES ($1,$2,$3)`,
			repoID, lang, bytes); err != nil {
			slog.Warn("Språkfeil", "repo", record.Repository, "language", lang, "error", err)
		}
	}

	for _, cf := range record.ServerlessConfig {
		if cf.Config == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO repo_config_files (repo_id, path, provider_name, runtimes, plugins, parse_error)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			repoID, cf.Path, cf.Config.ProviderName,
			JoinRuntimes(cf.Config.Runtimes),
			strings.Join(cf.Config.Plugins, ","),
			cf.Config.ParseError); err != nil {
			slog.Warn("Konfigfil-feil", "repo", record.Repository, "path", cf.Path, "error", err)
			continue
		}

		for _, pair := range parser.ExtractFunctionEvents(cf.Config.Events) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO repo_function_events (repo_id, config_path, function_name, event)
				 VALUES ($1,$2,$3,$4)`,
				repoID, cf.Path, pair.Function, pair.Event); err != nil {
				slog.Warn("Event-feil", "repo", record.Repository, "function", pair.Function, "error", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("Commit-feil", "repo", record.Repository, "error", err)
		return fmt.Errorf("commit feilet: %w", err)
	}
	return nil
}

func (p *PostgresWriter) Close() error {
	return p.DB.Close()
}

// NullableBool mapper tri-state til SQL: nil blir NULL.
func NullableBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

// JoinRuntimes flater runtimelisten til en kommaseparert streng; ukjente
// runtimes markeres eksplisitt.
func JoinRuntimes(runtimes []*string) string {
	parts := make([]string, 0, len(runtimes))
	for _, rt := range runtimes {
		if rt == nil {
			parts = append(parts, "unknown")
			continue
		}
		parts = append(parts, *rt)
	}
	return strings.Join(parts, ",")
}
