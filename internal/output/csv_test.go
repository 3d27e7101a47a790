package output

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/serpscan/internal/model"
)

// readRows parses the results file and returns every row including the header.
func readRows(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open results file: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse results file: %v", err)
	}
	return rows
}

// TestNewCSVSink tests sink creation and header handling.
func TestNewCSVSink(t *testing.T) {
	t.Parallel()

	t.Run("writes header to new file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "results.csv")

		s, err := NewCSVSink(path)
		if err != nil {
			t.Fatalf("failed to create sink: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("failed to close sink: %v", err)
		}

		rows := readRows(t, path)
		if len(rows) != 1 {
			t.Fatalf("expected only the header row, got %d rows", len(rows))
		}
		want := []string{"identity", "source_query", "found_at"}
		for i, col := range want {
			if rows[0][i] != col {
				t.Errorf("header[%d]: got %q, expected %q", i, rows[0][i], col)
			}
		}
	})

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "deep", "nested", "results.csv")

		s, err := NewCSVSink(path)
		if err != nil {
			t.Fatalf("failed to create sink: %v", err)
		}
		defer s.Close()

		if _, err := os.Stat(path); err != nil {
			t.Errorf("results file was not created: %v", err)
		}
		if s.Path() != path {
			t.Errorf("expected path %q, got %q", path, s.Path())
		}
	})

	t.Run("does not duplicate header on reopen", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "results.csv")

		s1, err := NewCSVSink(path)
		if err != nil {
			t.Fatalf("failed to create sink: %v", err)
		}
		rec := model.NewRecord("a@example.com", "golang jobs", time.Now())
		if err := s1.Append(context.Background(), []model.Record{rec}); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
		if err := s1.Close(); err != nil {
			t.Fatalf("failed to close sink: %v", err)
		}

		s2, err := NewCSVSink(path)
		if err != nil {
			t.Fatalf("failed to reopen sink: %v", err)
		}
		if err := s2.Close(); err != nil {
			t.Fatalf("failed to close reopened sink: %v", err)
		}

		rows := readRows(t, path)
		if len(rows) != 2 {
			t.Fatalf("expected header plus one record, got %d rows", len(rows))
		}
	})

	t.Run("fails when the path is not writable", func(t *testing.T) {
		t.Parallel()

		// A directory in place of the file makes the open fail.
		dir := t.TempDir()

		_, err := NewCSVSink(dir)
		if err == nil {
			t.Fatal("expected error when the results path is a directory")
		}
	})
}

// TestCSVSinkAppend tests record writing.
func TestCSVSinkAppend(t *testing.T) {
	t.Parallel()

	t.Run("writes one row per record", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "results.csv")
		s, err := NewCSVSink(path)
		if err != nil {
			t.Fatalf("failed to create sink: %v", err)
		}
		defer s.Close()

		foundAt := time.Date(2026, 8, 21, 10, 30, 0, 0, time.UTC)
		records := []model.Record{
			model.NewRecord("a@example.com", "golang jobs", foundAt),
			model.NewRecord("b@example.com", "golang jobs", foundAt),
		}
		if err := s.Append(context.Background(), records); err != nil {
			t.Fatalf("failed to append: %v", err)
		}

		rows := readRows(t, path)
		if len(rows) != 3 {
			t.Fatalf("expected header plus 2 records, got %d rows", len(rows))
		}
		if rows[1][0] != "a@example.com" || rows[2][0] != "b@example.com" {
			t.Errorf("unexpected identities: %q, %q", rows[1][0], rows[2][0])
		}
		if rows[1][2] != "2026-08-21T10:30:00Z" {
			t.Errorf("expected RFC3339 timestamp, got %q", rows[1][2])
		}
	})

	t.Run("quotes queries containing separators", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "results.csv")
		s, err := NewCSVSink(path)
		if err != nil {
			t.Fatalf("failed to create sink: %v", err)
		}
		defer s.Close()

		rec := model.NewRecord("a@example.com", `"acme, inc" contact email`, time.Now())
		if err := s.Append(context.Background(), []model.Record{rec}); err != nil {
			t.Fatalf("failed to append: %v", err)
		}

		rows := readRows(t, path)
		if len(rows) != 2 {
			t.Fatalf("expected header plus 1 record, got %d rows", len(rows))
		}
		if rows[1][1] != `"acme, inc" contact email` {
			t.Errorf("query did not round-trip, got %q", rows[1][1])
		}
	})

	t.Run("keeps batches contiguous under concurrency", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "results.csv")
		s, err := NewCSVSink(path)
		if err != nil {
			t.Fatalf("failed to create sink: %v", err)
		}
		defer s.Close()

		queries := []string{"query one", "query two", "query three", "query four"}

		var wg sync.WaitGroup
		for _, q := range queries {
			wg.Add(1)
			go func() {
				defer wg.Done()
				records := []model.Record{
					model.NewRecord("first@example.com", q, time.Now()),
					model.NewRecord("second@example.com", q, time.Now()),
				}
				if err := s.Append(context.Background(), records); err != nil {
					t.Errorf("append for %q failed: %v", q, err)
				}
			}()
		}
		wg.Wait()

		rows := readRows(t, path)
		if len(rows) != 1+2*len(queries) {
			t.Fatalf("expected %d rows, got %d", 1+2*len(queries), len(rows))
		}

		// Each batch wrote first@ then second@ under the same query; rows
		// of different batches must not interleave.
		for i := 1; i < len(rows); i += 2 {
			if rows[i][0] != "first@example.com" || rows[i+1][0] != "second@example.com" {
				t.Errorf("batch starting at row %d interleaved: %q then %q", i, rows[i][0], rows[i+1][0])
			}
			if rows[i][1] != rows[i+1][1] {
				t.Errorf("batch starting at row %d mixes queries %q and %q", i, rows[i][1], rows[i+1][1])
			}
		}
	})
}
