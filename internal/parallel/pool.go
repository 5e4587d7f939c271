// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package parallel fans observations out to a fixed set of screening
// workers and reassembles the verdicts in input order, so the output
// file keeps the row order of the input no matter which worker finished
// first.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"time"

	"crivo/internal/detector"
	"crivo/internal/observability"
)

// maxDefaultWorkers caps the worker count chosen automatically. Screening
// is CPU-bound apart from oracle calls, and past this point more workers
// only add scheduling noise.
const maxDefaultWorkers = 8

// Screener classifies one observation. *core.Screener implements it.
type Screener interface {
	Screen(ctx context.Context, obs detector.Observation) detector.Verdict
}

// Stats tracks batch screening statistics.
type Stats struct {
	TotalObservations int           `json:"total_observations"`
	Screened          int           `json:"screened"`
	Personal          int           `json:"personal"`
	TotalDuration     time.Duration `json:"total_duration_ms"`
	WorkerCount       int           `json:"worker_count"`
	AvgScreenTime     time.Duration `json:"avg_screen_time_ms"`
}

// ProgressCallback is called after each observation completes.
type ProgressCallback func(completed, total int, observationID string)

// Pool screens batches of observations concurrently.
type Pool struct {
	workers  int
	screener Screener
	observer *observability.StandardObserver
}

// NewPool creates a pool over the given screener. A non-positive worker
// count selects one worker per CPU, capped at maxDefaultWorkers; an
// explicit count is used as given.
func NewPool(workers int, screener Screener, observer *observability.StandardObserver) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > maxDefaultWorkers {
			workers = maxDefaultWorkers
		}
	}
	if observer == nil {
		observer = observability.NewStandardObserver(observability.ObservabilityOff, nil)
	}
	return &Pool{workers: workers, screener: screener, observer: observer}
}

// Workers returns the effective worker count.
func (p *Pool) Workers() int {
	return p.workers
}

type job struct {
	index int
	obs   detector.Observation
}

type outcome struct {
	index    int
	verdict  detector.Verdict
	duration time.Duration
}

// ScreenAll screens every observation and returns the verdicts in input
// order. On context cancellation the returned error is non-nil and the
// verdict slice is partial; callers must discard it.
func (p *Pool) ScreenAll(ctx context.Context, observations []detector.Observation) ([]detector.Verdict, *Stats, error) {
	return p.ScreenAllWithProgress(ctx, observations, nil)
}

// ScreenAllWithProgress is ScreenAll with a per-observation progress
// callback, invoked from the collecting goroutine in completion order.
func (p *Pool) ScreenAllWithProgress(ctx context.Context, observations []detector.Observation, progress ProgressCallback) ([]detector.Verdict, *Stats, error) {
	start := time.Now()
	finish := p.observer.StartTiming("parallel", "screen_batch", "batch")

	total := len(observations)
	verdicts := make([]detector.Verdict, total)

	jobs := make(chan job, p.workers*2)
	outcomes := make(chan outcome, p.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				// A cancelled batch drains its queue without screening.
				if ctx.Err() != nil {
					continue
				}
				jobStart := time.Now()
				verdict := p.screener.Screen(ctx, j.obs)
				select {
				case outcomes <- outcome{index: j.index, verdict: verdict, duration: time.Since(jobStart)}:
				case <-ctx.Done():
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, obs := range observations {
			select {
			case jobs <- job{index: i, obs: obs}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	screened := 0
	personal := 0
	var screenTime time.Duration
	for res := range outcomes {
		verdicts[res.index] = res.verdict
		screened++
		if res.verdict.IsPersonal {
			personal++
		}
		screenTime += res.duration
		if progress != nil {
			progress(screened, total, res.verdict.ObservationID)
		}
	}

	stats := &Stats{
		TotalObservations: total,
		Screened:          screened,
		Personal:          personal,
		TotalDuration:     time.Since(start),
		WorkerCount:       p.workers,
		AvgScreenTime:     screenTime / time.Duration(max(screened, 1)),
	}

	err := ctx.Err()
	finish(err == nil, map[string]interface{}{
		"total_observations": total,
		"screened":           screened,
		"personal":           personal,
		"worker_count":       p.workers,
		"duration_ms":        stats.TotalDuration.Milliseconds(),
	})
	return verdicts, stats, err
}
