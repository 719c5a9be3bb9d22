package jsonlwriter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonmartinstorm/slsnusern/internal/models"
)

// Writer skriver én JSON-kodet post per linje – ingen omsluttende array,
// ingen hengende komma. Dette er primærformatet for datasettet.
type Writer struct {
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
}

func New(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("kunne ikke opprette utfil %s: %w", path, err)
	}
	buf := bufio.NewWriter(f)
	return &Writer{
		file: f,
		buf:  buf,
		enc:  json.NewEncoder(buf),
	}, nil
}

func (w *Writer) WriteRecord(_ context.Context, record *models.RepositoryRecord) error {
	// json.Encoder avslutter hver post med \n.
	if err := w.enc.Encode(record); err != nil {
		return fmt.Errorf("kunne ikke serialisere post for %s: %w", record.Repository, err)
	}
	return nil
}

func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}
