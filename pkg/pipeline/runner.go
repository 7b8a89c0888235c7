package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultStepLimit bounds a run when no explicit ceiling is configured.
// The limit exists to catch mis-wired cycles, not to budget work.
const DefaultStepLimit = 25

// Runner drives a compiled graph from its entry step to the terminal
// marker. It owns the state for the duration of one run: steps receive a
// value and return a delta, and the runner alone applies deltas through
// the channel registry.
type Runner struct {
	graph     *CompiledGraph
	channels  Channels
	stepLimit int
	logger    *slog.Logger
}

// NewRunner compiles the graph and returns a Runner over it.
func NewRunner(g *Graph, channels Channels, stepLimit int, logger *slog.Logger) (*Runner, error) {
	compiled, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile graph: %w", err)
	}

	if stepLimit <= 0 {
		stepLimit = DefaultStepLimit
	}

	return &Runner{
		graph:     compiled,
		channels:  channels,
		stepLimit: stepLimit,
		logger:    logger.With("system", "pipeline"),
	}, nil
}

// NewState returns an empty state bound to the runner's channel registry.
func (r *Runner) NewState() State {
	return NewState(r.channels)
}

// Run executes the pipeline to completion and returns the final state.
// Failures are reported as a *RunError carrying the partially-built state.
func (r *Runner) Run(ctx context.Context, initial State) (State, error) {
	state := initial
	current := r.graph.Entry()

	for executed := 0; current != End; executed++ {
		if executed >= r.stepLimit {
			return state, &RunError{
				StepID: current,
				State:  state,
				Err:    fmt.Errorf("%w: %d steps executed without reaching %s", ErrStepLimit, executed, End),
			}
		}

		step, ok := r.graph.Step(current)
		if !ok {
			// Compile guarantees this cannot happen; guard anyway.
			return state, &RunError{
				StepID: current,
				State:  state,
				Err:    fmt.Errorf("%w: %s", ErrUndefinedStep, current),
			}
		}

		start := time.Now()
		delta, err := r.runStep(ctx, step, state)
		if err != nil {
			return state, &RunError{StepID: current, State: state, Err: err}
		}

		state, err = state.Apply(delta)
		if err != nil {
			return state, &RunError{StepID: current, State: state, Err: err}
		}

		r.logger.Info("step complete",
			"step", current,
			"kind", step.Kind(),
			"fields", len(delta),
			"duration", time.Since(start),
		)

		current = r.graph.Next(current)
	}

	return state, nil
}

// runStep executes a single step, converting a panic inside the step into
// a run-level error so one misbehaving step cannot take down the process.
func (r *Runner) runStep(ctx context.Context, step Step, state State) (delta Delta, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("step panicked: %v", rec)
		}
	}()

	return step.Run(ctx, state)
}
