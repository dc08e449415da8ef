package features

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
	"github.com/RyanBlaney/sonido-voice/logging"
)

// Source is one recording of a multi-file request. Load runs inside the
// file's worker and under its timeout.
type Source struct {
	Name string
	Load func(ctx context.Context) (*common.SampleBuffer, error)
}

// BufferSource wraps an already decoded buffer
func BufferSource(name string, buf *common.SampleBuffer) Source {
	return Source{
		Name: name,
		Load: func(context.Context) (*common.SampleBuffer, error) {
			return buf, nil
		},
	}
}

// FileResult is the outcome for one source
type FileResult struct {
	Name   string
	Report *Report // nil when the file failed
	Err    error
}

// Usable reports whether the file contributes to the averages
func (r FileResult) Usable() bool {
	return r.Err == nil && r.Report != nil
}

// MultiReport holds per-metric means across usable files
type MultiReport struct {
	Mean   FeatureSet     // 0 for metrics with no finite contribution
	Counts map[string]int // contributing files per flat key
	Files  []FileResult   // in source order
	Usable int
}

// ErrNoVoicedSegments marks a file in which no voiced frame was found
var ErrNoVoicedSegments = errors.New("no voiced segments")

// AnalyzeMany analyzes every source independently and averages each metric
// over the files where it is finite. Files that fail to load, fail to
// analyze, time out, or contain no voicing do not contribute.
func (a *Analyzer) AnalyzeMany(ctx context.Context, sources []Source) (*MultiReport, error) {
	if len(sources) == 0 {
		return nil, ErrEmptyInput
	}

	results := make([]FileResult, len(sources))

	var g errgroup.Group
	if a.config.FileWorkers > 0 {
		g.SetLimit(a.config.FileWorkers)
	}

	for i, src := range sources {
		g.Go(func() error {
			results[i] = a.analyzeSource(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := aggregate(results)

	a.logger.Info("multi-file analysis complete", logging.Fields{
		"files":  len(sources),
		"usable": report.Usable,
	})

	if report.Usable == 0 {
		return report, fmt.Errorf("%w: all %d files failed", ErrNoUsableInput, len(sources))
	}

	return report, nil
}

func (a *Analyzer) analyzeSource(ctx context.Context, src Source) FileResult {
	result := FileResult{Name: src.Name}

	fileCtx := logging.ContextWithFields(ctx, logging.Fields{"file": src.Name})
	logger := a.logger.WithContext(fileCtx)

	if a.config.FileTimeout > 0 {
		var cancel context.CancelFunc
		fileCtx, cancel = context.WithTimeout(fileCtx, a.config.FileTimeout)
		defer cancel()
	}

	type outcome struct {
		report *Report
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		buf, err := src.Load(fileCtx)
		if err != nil {
			done <- outcome{err: fmt.Errorf("failed to load %s: %w", src.Name, err)}
			return
		}
		report, err := a.Analyze(fileCtx, buf)
		done <- outcome{report: report, err: err}
	}()

	// A timed-out file is abandoned; its worker finishes in the background
	select {
	case out := <-done:
		result.Report, result.Err = out.report, out.err
	case <-fileCtx.Done():
		result.Err = fmt.Errorf("analysis of %s abandoned: %w", src.Name, fileCtx.Err())
	}

	if result.Err == nil && !result.Report.Diagnostics.Voiced {
		result.Err = fmt.Errorf("%s: %w", src.Name, ErrNoVoicedSegments)
	}

	if result.Err != nil {
		result.Report = nil
		logger.Warn("file excluded from averages", logging.Fields{"error": result.Err.Error()})
		a.metrics.RecordFile(ctx, "failed")
	} else {
		a.metrics.RecordFile(ctx, "ok")
	}

	return result
}

// aggregate averages each metric over the usable files where it is finite
func aggregate(results []FileResult) *MultiReport {
	report := &MultiReport{
		Counts: make(map[string]int, len(fields)),
		Files:  results,
	}

	for _, r := range results {
		if r.Usable() {
			report.Usable++
		}
	}

	for _, f := range fields {
		sum, n := 0.0, 0
		for _, r := range results {
			if !r.Usable() {
				continue
			}
			if v := *f.value(&r.Report.Features); common.IsFinite(v) {
				sum += v
				n++
			}
		}

		mean := 0.0
		if n > 0 {
			mean = sum / float64(n)
		}
		*f.value(&report.Mean) = mean
		report.Counts[f.key] = n
	}

	return report
}
