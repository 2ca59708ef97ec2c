// Package importer runs bulk payee cleanup over bank CSV exports.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/the-names-must-flow/internal/model"
	"github.com/Veraticus/the-names-must-flow/internal/service"
	"github.com/schollz/progressbar/v3"
)

// PayeeCleaner is the slice of the cleanup engine the importer needs.
type PayeeCleaner interface {
	Cleanup(ctx context.Context, rawPayee, transactionRef string, txnContext map[string]string) (model.CleanupResult, error)
}

// Importer cleans every payee in a transaction export, fanning rows out to
// a bounded worker pool.
type Importer struct {
	cleaner    PayeeCleaner
	progress   io.Writer
	maxWorkers int
}

// Config holds configuration options for the importer.
type Config struct {
	// Progress receives the progress bar; nil disables it.
	Progress   io.Writer
	MaxWorkers int
}

// New creates an importer with default settings.
func New(cleaner PayeeCleaner) *Importer {
	return NewWithConfig(cleaner, Config{})
}

// NewWithConfig creates an importer with custom configuration.
func NewWithConfig(cleaner PayeeCleaner, config Config) *Importer {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 5
	}
	if config.Progress == nil {
		config.Progress = io.Discard
	}

	return &Importer{
		cleaner:    cleaner,
		progress:   config.Progress,
		maxWorkers: config.MaxWorkers,
	}
}

// Run cleans every payee in the input CSV and writes the annotated rows to
// the output path, preserving row order. The first cleanup error aborts the
// run; synthesizer trouble is not an error here, it degrades to passthrough
// rows instead.
func (im *Importer) Run(ctx context.Context, inputPath, outputPath string) (service.ImportStats, error) {
	start := time.Now()

	rows, err := readRows(inputPath)
	if err != nil {
		return service.ImportStats{}, err
	}

	if len(rows) == 0 {
		slog.Info("no transactions to clean", "input", inputPath)
		if err := writeRows(outputPath, rows); err != nil {
			return service.ImportStats{}, err
		}
		return service.ImportStats{Duration: time.Since(start)}, nil
	}

	slog.Info("cleaning transactions",
		"input", inputPath,
		"count", len(rows),
		"workers", im.maxWorkers)

	bar := im.newProgressBar(len(rows))

	results := make([]model.CleanupResult, len(rows))
	errs := make([]error, len(rows))

	sem := make(chan struct{}, im.maxWorkers)
	var wg sync.WaitGroup

	for idx, row := range rows {
		wg.Add(1)
		go func(idx int, row *Row) {
			defer wg.Done()

			// Acquire semaphore
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			}

			results[idx], errs[idx] = im.cleaner.Cleanup(ctx, row.Payee, row.transactionRef(), row.context())
			_ = bar.Add(1)
		}(idx, row)
	}

	wg.Wait()
	_ = bar.Finish()

	for idx, rowErr := range errs {
		if rowErr != nil {
			return service.ImportStats{}, fmt.Errorf("failed to clean row %d: %w", idx+1, rowErr)
		}
	}

	stats := service.ImportStats{Total: len(rows)}
	newPending := make(map[int64]struct{})

	for idx, result := range results {
		rows[idx].CleanedPayee = result.Cleaned
		rows[idx].CleanedBy = string(result.CleanedBy)

		switch result.CleanedBy {
		case model.CleanedByRule:
			stats.RuleHits++
		case model.CleanedByAI:
			stats.AICleanups++
		case model.CleanedByNone:
			stats.Passthrough++
		}

		// The same draft can back several rows; count the rule once.
		if result.GeneratedRuleID != nil {
			newPending[*result.GeneratedRuleID] = struct{}{}
		}
	}
	stats.NewPending = len(newPending)

	if err := writeRows(outputPath, rows); err != nil {
		return service.ImportStats{}, err
	}

	stats.Duration = time.Since(start)

	slog.Info("cleanup run complete",
		"output", outputPath,
		"total", stats.Total,
		"rule_hits", stats.RuleHits,
		"ai_cleanups", stats.AICleanups,
		"passthrough", stats.Passthrough,
		"new_pending", stats.NewPending,
		"duration", stats.Duration)

	return stats, nil
}

func (im *Importer) newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(im.progress),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Cleaning payees...[reset]"),
	)
}
