package recognition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"slices"
	"sync"

	"github.com/RyanBlaney/sonido-kord/audio"
	"github.com/RyanBlaney/sonido-kord/logging"
	"golang.org/x/sync/errgroup"
)

// WindowError is a failure confined to one window
type WindowError struct {
	Index int
	Err   error
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("window %d: %v", e.Index, e.Err)
}

func (e *WindowError) Unwrap() error {
	return e.Err
}

// RecognizeAll analyzes independent windows in parallel and returns results in
// input order. A rejected window leaves a nil result and contributes a
// *WindowError to the joined error; the other windows are unaffected. Only
// cancellation of ctx stops the batch early.
func (r *Recognizer) RecognizeAll(ctx context.Context, windows []*audio.Window) ([]*Result, error) {
	results := make([]*Result, len(windows))
	if len(windows) == 0 {
		return results, nil
	}

	workers := r.workerCount(len(windows))
	r.logger.Debug("Recognizing windows", logging.Fields{
		"windows": len(windows),
		"workers": workers,
	})

	var (
		mu     sync.Mutex
		failed []*WindowError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, w := range windows {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.Recognize(w)
			if err != nil {
				mu.Lock()
				failed = append(failed, &WindowError{Index: i, Err: err})
				mu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}

	if len(failed) > 0 {
		r.logger.Warn("Some windows were rejected", logging.Fields{
			"rejected": len(failed),
			"windows":  len(windows),
		})
	}
	slices.SortFunc(failed, func(a, b *WindowError) int { return a.Index - b.Index })
	errs := make([]error, len(failed))
	for i, e := range failed {
		errs[i] = e
	}
	return results, errors.Join(errs...)
}

// Stream recognizes windows from src one at a time, each to completion before
// the next is pulled. fn receives every result, or the error of a rejected
// window; returning an error from fn stops the stream. ctx is checked between windows.
func (r *Recognizer) Stream(ctx context.Context, src audio.Source, fn func(*Result, error) error) error {
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		w, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("window source: %w", err)
		}

		res, err := r.Recognize(w)
		if err != nil {
			err = &WindowError{Index: index, Err: err}
		}
		if err := fn(res, err); err != nil {
			return err
		}
	}
}

// workerCount bounds parallelism by the configured workers or the CPU count
func (r *Recognizer) workerCount(windows int) int {
	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return max(1, min(workers, windows))
}
