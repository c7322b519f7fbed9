// internal/processor/batch.go
package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"voice-timelog-go/internal/pipeline"
	"voice-timelog-go/internal/transcription"
	"voice-timelog-go/internal/types"
)

// FileResult is the outcome for one audio file of a batch.
type FileResult struct {
	File       string                  `json:"file"`
	Record     *types.ProcessingRecord `json:"record,omitempty"`
	DurationMs int64                   `json:"duration_ms"`
	Error      string                  `json:"error,omitempty"`
}

// Options apply to every file in a batch.
type Options struct {
	CustomerHint string
	DateHint     string
	Notify       bool
	SkipDelivery bool
	// Workers bounds how many files are processed at once.
	Workers int
}

// Processor is the part of the orchestrator a batch needs.
type Processor interface {
	Process(ctx context.Context, sub pipeline.Submission) (*types.ProcessingRecord, error)
}

// ProcessFiles runs every file through p with at most opts.Workers in flight.
// A failing file never stops the others; results keep the input order.
func ProcessFiles(ctx context.Context, p Processor, files []string, opts Options, log *logrus.Entry) []FileResult {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	log = log.WithField("module", "processor")
	results := make([]FileResult, len(files))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			results[i] = processFile(ctx, p, path, opts)
			entry := log.WithFields(logrus.Fields{"file": path, "duration_ms": results[i].DurationMs})
			if results[i].Error != "" {
				entry.WithField("error", results[i].Error).Warn("file failed")
			} else {
				entry.Info("file processed")
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func processFile(ctx context.Context, p Processor, path string, opts Options) FileResult {
	start := time.Now()
	res := FileResult{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = fmt.Sprintf("read file: %v", err)
		res.DurationMs = time.Since(start).Milliseconds()
		return res
	}

	rec, err := p.Process(ctx, pipeline.Submission{
		Audio:        transcription.Audio{Data: data, Filename: filepath.Base(path)},
		CustomerHint: opts.CustomerHint,
		DateHint:     opts.DateHint,
		Notify:       opts.Notify,
		SkipDelivery: opts.SkipDelivery,
	})
	res.Record = rec
	if err != nil {
		res.Error = err.Error()
	}
	res.DurationMs = time.Since(start).Milliseconds()
	return res
}

// Failed counts results that carry an error.
func Failed(results []FileResult) int {
	n := 0
	for _, r := range results {
		if r.Error != "" {
			n++
		}
	}
	return n
}
