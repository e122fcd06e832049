package enrich

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Pipeline coordinates the execution of a sequence of stages for items flowing
// through a channel. For each incoming item, steps within the same stage run in
// parallel, and stages themselves run sequentially.
//
// Pipeline is generic over the item type T.
type Pipeline[T any] struct {
	stages []Stage[T]
}

// NewPipeline constructs a Pipeline from the provided stages. Stages will be
// applied to each item in order.
func NewPipeline[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages}
}

// Process consumes items from the input channel until it is closed. For each item:
//   - All steps in a stage are started concurrently and must complete before
//     moving to the next stage (a stage barrier).
//   - Errors returned by steps are logged and ignored so the pipeline can
//     continue processing.
func (p *Pipeline[T]) Process(ctx context.Context, in <-chan *T) {
	for item := range in {
		for _, stage := range p.stages {
			for _, err := range stage.run(ctx, item) {
				slog.Error("step failed", "error", err)
			}
		}
	}
}

// Apply runs every stage over a single item and stops after the first stage
// in which a step failed. The errors of that stage are returned joined.
func (p *Pipeline[T]) Apply(ctx context.Context, item *T) error {
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if errs := stage.run(ctx, item); len(errs) > 0 {
			return errors.Join(errs...)
		}
	}
	return nil
}

// run starts every step of the stage and waits for all of them.
func (s Stage[T]) run(ctx context.Context, item *T) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, step := range s.steps {
		wg.Add(1)
		go func(step Step[T]) {
			defer wg.Done()
			if err := step(ctx, item); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(step)
	}
	wg.Wait()
	return errs
}
