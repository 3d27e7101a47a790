package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nao1215/serpscan/internal/model"
)

// header is the fixed column set of the results file.
var header = []string{"identity", "source_query", "found_at"}

// CSVSink appends extracted records to a delimited flat file.
// It is safe for concurrent use by multiple sessions; the rows of one
// Append call stay contiguous in the file.
//
// Design decision: We open the file in append mode and flush after every
// batch rather than buffering until shutdown. Sessions can run for a long
// time, and losing everything to a crash in the last batch is worse than
// paying a flush per page.
type CSVSink struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
	path string
}

// NewCSVSink opens or creates the results file at path, creating parent
// directories as needed. A new or empty file gets the header row
// immediately, so a run that finds nothing still leaves a parseable file
// behind. A header that cannot be written is a startup failure.
func NewCSVSink(path string) (*CSVSink, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}

	s := &CSVSink{
		file: f,
		w:    csv.NewWriter(f),
		path: path,
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat results file: %w", err)
	}
	if info.Size() == 0 {
		if err := s.writeHeader(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	return s, nil
}

// writeHeader writes and flushes the header row.
func (s *CSVSink) writeHeader() error {
	if err := s.w.Write(header); err != nil {
		return fmt.Errorf("failed to write results header: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("failed to write results header: %w", err)
	}
	return nil
}

// Append writes one row per record and flushes. encoding/csv quotes
// separators, quotes, and newlines, so free-form queries cannot corrupt
// the file shape.
func (s *CSVSink) Append(_ context.Context, records []model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		row := []string{
			rec.Identity,
			rec.SourceQuery,
			rec.FoundAt.UTC().Format(time.RFC3339),
		}
		if err := s.w.Write(row); err != nil {
			return fmt.Errorf("failed to write record row: %w", err)
		}
	}

	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("failed to flush records: %w", err)
	}
	return nil
}

// Path returns the location of the results file.
func (s *CSVSink) Path() string {
	return s.path
}

// Close flushes any buffered rows and closes the file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w.Flush()
	if err := s.w.Error(); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("failed to flush records: %w", err)
	}
	return s.file.Close()
}
