package enrich

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

type PipelineItem struct {
	mu      sync.Mutex
	Results map[string]any
}

func NewPipelineItem() *PipelineItem {
	return &PipelineItem{Results: make(map[string]any)}
}

func (p *PipelineItem) set(key string, val any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Results[key] = val
}

func StepAddFoo(_ context.Context, item *PipelineItem) error {
	item.set("foo", "bar")
	return nil
}

func StepAddValue(key string, val any) Step[PipelineItem] {
	return func(ctx context.Context, item *PipelineItem) error {
		item.set(key, val)
		return nil
	}
}

var errMockStep = errors.New("mock step failed")

func StepError(_ context.Context, _ *PipelineItem) error {
	return errMockStep
}

func TestPipeline_Process(t *testing.T) {
	tests := []struct {
		name     string
		stages   []Stage[PipelineItem]
		expected map[string]any
	}{
		{
			name:   "single step adds foo",
			stages: []Stage[PipelineItem]{NewStage(StepAddFoo)},
			expected: map[string]any{
				"foo": "bar",
			},
		},
		{
			name: "two steps in one stage run in parallel",
			stages: []Stage[PipelineItem]{
				NewStage(
					StepAddValue("x", 1),
					StepAddValue("y", 2),
				),
			},
			expected: map[string]any{
				"x": 1,
				"y": 2,
			},
		},
		{
			name: "multi-stage sequential dependency",
			stages: []Stage[PipelineItem]{
				NewStage(StepAddValue("a", "first")),
				NewStage(StepAddValue("b", "second")),
			},
			expected: map[string]any{
				"a": "first",
				"b": "second",
			},
		},
		{
			name: "step error does not break pipeline",
			stages: []Stage[PipelineItem]{
				NewStage(StepError),
				NewStage(StepAddValue("ok", true)),
			},
			expected: map[string]any{
				"ok": true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			item := NewPipelineItem()
			in := make(chan *PipelineItem, 1)
			in <- item
			close(in)

			p := NewPipeline(tt.stages...)
			p.Process(ctx, in)

			if !reflect.DeepEqual(item.Results, tt.expected) {
				t.Errorf("got %+v, expected %+v", item.Results, tt.expected)
			}
		})
	}
}

func TestPipeline_Apply(t *testing.T) {
	tests := []struct {
		name     string
		stages   []Stage[PipelineItem]
		wantErr  bool
		expected map[string]any
	}{
		{
			name: "runs all stages",
			stages: []Stage[PipelineItem]{
				NewStage(StepAddValue("a", 1)),
				NewStage(StepAddValue("b", 2)),
			},
			expected: map[string]any{"a": 1, "b": 2},
		},
		{
			name: "stops after failing stage",
			stages: []Stage[PipelineItem]{
				NewStage(StepAddValue("a", 1), StepError),
				NewStage(StepAddValue("b", 2)),
			},
			wantErr:  true,
			expected: map[string]any{"a": 1},
		},
		{
			name:     "no stages",
			expected: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := NewPipelineItem()
			err := NewPipeline(tt.stages...).Apply(context.Background(), item)
			if tt.wantErr {
				if !errors.Is(err, errMockStep) {
					t.Fatalf("expected errMockStep, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(item.Results, tt.expected) {
				t.Errorf("got %+v, expected %+v", item.Results, tt.expected)
			}
		})
	}
}

func TestPipeline_Apply_JoinsStageErrors(t *testing.T) {
	other := errors.New("other failure")
	p := NewPipeline(NewStage(StepError, func(context.Context, *PipelineItem) error { return other }))

	err := p.Apply(context.Background(), NewPipelineItem())
	if !errors.Is(err, errMockStep) || !errors.Is(err, other) {
		t.Fatalf("expected both step errors, got %v", err)
	}
}

func TestPipeline_Apply_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	item := NewPipelineItem()
	err := NewPipeline(NewStage(StepAddFoo)).Apply(ctx, item)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(item.Results) != 0 {
		t.Errorf("expected no steps to run, got %+v", item.Results)
	}
}
