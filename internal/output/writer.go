// Package output writes the downstream document produced by each run.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/petrescueapp/data-collector/internal/clock"
	"github.com/petrescueapp/data-collector/internal/diff"
	"github.com/petrescueapp/data-collector/internal/model"
)

const outputFilename = "animals.json"

// Document is the artifact consumed downstream: a UTC timestamp, the totals,
// the diff-count block, and the full canonical array.
type Document struct {
	CollectedAt string         `json:"collected_at"`
	TotalCount  int            `json:"total_count"`
	Diff        DiffCounts     `json:"diff"`
	Animals     []model.Record `json:"animals"`
}

// DiffCounts summarizes the run's classification.
type DiffCounts struct {
	NewCount     int `json:"new_count"`
	UpdatedCount int `json:"updated_count"`
	DeletedCount int `json:"deleted_count"`
}

// Writer serializes run output under a single directory.
type Writer struct {
	dir   string
	clock clock.Clock
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string, clk clock.Clock) (*Writer, error) {
	if dir == "" {
		dir = "output"
	}
	if clk == nil {
		clk = clock.System{}
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &Writer{dir: dir, clock: clk}, nil
}

// Write serializes the collected set plus the diff summary and returns the
// output path. An empty set is valid output, not an error.
func (w *Writer) Write(records []model.Record, result diff.Result) (string, error) {
	if records == nil {
		records = []model.Record{}
	}
	doc := Document{
		CollectedAt: w.clock.Now().UTC().Format(time.RFC3339),
		TotalCount:  len(records),
		Diff: DiffCounts{
			NewCount:     len(result.New),
			UpdatedCount: len(result.Updated),
			DeletedCount: len(result.DeletedCandidates),
		},
		Animals: records,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("marshal output: %w", err)
	}

	target := filepath.Join(w.dir, outputFilename)
	if err := os.WriteFile(target, buf.Bytes(), 0o640); err != nil {
		return "", fmt.Errorf("write output %s: %w", target, err)
	}
	return target, nil
}
