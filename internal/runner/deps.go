package runner

import (
	"context"

	"github.com/jonmartinstorm/slsnusern/internal/models"
)

// Harvester bygger én datasettpost per repo-URL. nil betyr hopp over.
type Harvester interface {
	ProcessRepo(ctx context.Context, rawURL string) *models.RepositoryRecord
}

// RecordWriter er utgangen for ferdige poster: JSONL, Postgres eller
// BigQuery. Runneren serialiserer kallene, så implementasjoner trenger
// ikke være trådsikre.
type RecordWriter interface {
	WriteRecord(ctx context.Context, record *models.RepositoryRecord) error
	Close() error
}
