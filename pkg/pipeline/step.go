package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/newslens/reframe/pkg/generation"
)

// Kind identifies one of the three step variants. The set is closed:
// graph construction rejects anything else.
type Kind string

const (
	KindGeneration    Kind = "generation"
	KindFunction      Kind = "function"
	KindParallelGroup Kind = "parallel_group"
)

// ParseKind validates a string as a known step kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindGeneration, KindFunction, KindParallelGroup:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// StepFunc is the body of a function step: read state, return a delta.
type StepFunc func(ctx context.Context, s State) (Delta, error)

// Step is one node in the pipeline graph.
type Step interface {
	ID() string
	Kind() Kind
	Run(ctx context.Context, s State) (Delta, error)
}

// MessageFunc builds the completion request for a generation step or task
// from the current state.
type MessageFunc func(s State) ([]generation.Message, error)

type functionStep struct {
	id string
	fn StepFunc
}

// NewFunctionStep creates a deterministic step from a function.
func NewFunctionStep(id string, fn StepFunc) (Step, error) {
	if id == "" {
		return nil, fmt.Errorf("function step requires an id")
	}
	if fn == nil {
		return nil, fmt.Errorf("function step %q requires a function", id)
	}
	return &functionStep{id: id, fn: fn}, nil
}

func (s *functionStep) ID() string { return s.id }
func (s *functionStep) Kind() Kind { return KindFunction }

func (s *functionStep) Run(ctx context.Context, state State) (Delta, error) {
	return s.fn(ctx, state)
}

type generationStep struct {
	id       string
	caller   generation.Caller
	messages MessageFunc
	opts     generation.Options
	output   string
}

// NewGenerationStep creates a step that issues one completion call and
// writes the parsed result, or the FailureResult, to the output field.
// Only message construction can fail the step; call failures are data.
func NewGenerationStep(
	id string,
	caller generation.Caller,
	messages MessageFunc,
	opts generation.Options,
	outputField string,
) (Step, error) {
	if id == "" {
		return nil, fmt.Errorf("generation step requires an id")
	}
	if caller == nil {
		return nil, fmt.Errorf("generation step %q requires a caller", id)
	}
	if messages == nil {
		return nil, fmt.Errorf("generation step %q requires a message builder", id)
	}
	if outputField == "" {
		return nil, fmt.Errorf("generation step %q requires an output field", id)
	}
	return &generationStep{
		id:       id,
		caller:   caller,
		messages: messages,
		opts:     opts,
		output:   outputField,
	}, nil
}

func (s *generationStep) ID() string { return s.id }
func (s *generationStep) Kind() Kind { return KindGeneration }

func (s *generationStep) Run(ctx context.Context, state State) (Delta, error) {
	msgs, err := s.messages(state)
	if err != nil {
		return nil, fmt.Errorf("build messages: %w", err)
	}

	result, fail := s.caller.Call(ctx, msgs, s.opts)
	if fail != nil {
		return Delta{s.output: *fail}, nil
	}
	return Delta{s.output: result}, nil
}

// Task is one independent generation call inside a parallel group.
type Task struct {
	Name        string
	OutputField string
	Messages    MessageFunc
	Options     generation.Options
}

type parallelGroup struct {
	id     string
	caller generation.Caller
	tasks  []Task
}

// NewParallelGroup creates a step that runs every task concurrently and
// joins once all have settled. A task failure populates that task's output
// field with a FailureResult and never cancels or blocks its siblings.
func NewParallelGroup(id string, caller generation.Caller, tasks []Task) (Step, error) {
	if id == "" {
		return nil, fmt.Errorf("parallel group requires an id")
	}
	if caller == nil {
		return nil, fmt.Errorf("parallel group %q requires a caller", id)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("parallel group %q requires at least one task", id)
	}

	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.Name == "" || t.OutputField == "" || t.Messages == nil {
			return nil, fmt.Errorf("parallel group %q: task requires name, output field, and messages", id)
		}
		if seen[t.OutputField] {
			return nil, fmt.Errorf("parallel group %q: duplicate output field %q", id, t.OutputField)
		}
		seen[t.OutputField] = true
	}

	return &parallelGroup{id: id, caller: caller, tasks: tasks}, nil
}

func (s *parallelGroup) ID() string { return s.id }
func (s *parallelGroup) Kind() Kind { return KindParallelGroup }

func (s *parallelGroup) Run(ctx context.Context, state State) (Delta, error) {
	results := make([]any, len(s.tasks))

	// Tasks never return errors through the group, so the errgroup context
	// is never cancelled by a sibling failure. This is an all-complete
	// join, not a race.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(s.tasks))

	for i, task := range s.tasks {
		g.Go(func() error {
			results[i] = runTask(gctx, s.caller, task, state)
			return nil
		})
	}

	g.Wait()

	delta := make(Delta, len(s.tasks))
	for i, task := range s.tasks {
		delta[task.OutputField] = results[i]
	}
	return delta, nil
}

func runTask(ctx context.Context, caller generation.Caller, task Task, state State) any {
	msgs, err := task.Messages(state)
	if err != nil {
		return generation.FailureResult{
			Error: fmt.Sprintf("build messages for %s: %v", task.Name, err),
		}
	}

	result, fail := caller.Call(ctx, msgs, task.Options)
	if fail != nil {
		return *fail
	}
	return result
}
