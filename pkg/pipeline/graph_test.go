package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/newslens/reframe/pkg/pipeline"
)

func funcStep(t *testing.T, id string, fn pipeline.StepFunc) pipeline.Step {
	t.Helper()
	s, err := pipeline.NewFunctionStep(id, fn)
	if err != nil {
		t.Fatalf("NewFunctionStep(%s): %v", id, err)
	}
	return s
}

func noop(_ context.Context, _ pipeline.State) (pipeline.Delta, error) {
	return nil, nil
}

func TestGraphCompile(t *testing.T) {
	t.Run("valid linear graph", func(t *testing.T) {
		g := pipeline.NewGraph()
		g.AddStep(funcStep(t, "a", noop))
		g.AddStep(funcStep(t, "b", noop))
		g.AddEdge("a", "b")
		g.AddEdge("b", pipeline.End)
		g.SetEntryPoint("a")

		if _, err := g.Compile(); err != nil {
			t.Errorf("Compile error: %v", err)
		}
	})

	t.Run("missing entry point", func(t *testing.T) {
		g := pipeline.NewGraph()
		g.AddStep(funcStep(t, "a", noop))
		g.AddEdge("a", pipeline.End)

		if _, err := g.Compile(); !errors.Is(err, pipeline.ErrNoEntryPoint) {
			t.Errorf("error = %v, want ErrNoEntryPoint", err)
		}
	})

	t.Run("undefined entry step", func(t *testing.T) {
		g := pipeline.NewGraph()
		g.AddStep(funcStep(t, "a", noop))
		g.AddEdge("a", pipeline.End)
		g.SetEntryPoint("missing")

		if _, err := g.Compile(); !errors.Is(err, pipeline.ErrUndefinedStep) {
			t.Errorf("error = %v, want ErrUndefinedStep", err)
		}
	})

	t.Run("edge to undefined step", func(t *testing.T) {
		g := pipeline.NewGraph()
		g.AddStep(funcStep(t, "a", noop))
		g.AddEdge("a", "ghost")
		g.SetEntryPoint("a")

		if _, err := g.Compile(); !errors.Is(err, pipeline.ErrUndefinedStep) {
			t.Errorf("error = %v, want ErrUndefinedStep", err)
		}
	})

	t.Run("step without outgoing edge", func(t *testing.T) {
		g := pipeline.NewGraph()
		g.AddStep(funcStep(t, "a", noop))
		g.AddStep(funcStep(t, "b", noop))
		g.AddEdge("a", "b")
		g.SetEntryPoint("a")

		if _, err := g.Compile(); !errors.Is(err, pipeline.ErrNoTerminal) {
			t.Errorf("error = %v, want ErrNoTerminal", err)
		}
	})

	t.Run("cycle compiles", func(t *testing.T) {
		// Cycles are caught by the runner's step ceiling, not by Compile.
		g := pipeline.NewGraph()
		g.AddStep(funcStep(t, "a", noop))
		g.AddStep(funcStep(t, "b", noop))
		g.AddEdge("a", "b")
		g.AddEdge("b", "a")
		g.SetEntryPoint("a")

		if _, err := g.Compile(); err != nil {
			t.Errorf("Compile error: %v", err)
		}
	})
}

func TestGraphConstruction(t *testing.T) {
	t.Run("duplicate step id rejected", func(t *testing.T) {
		g := pipeline.NewGraph()
		g.AddStep(funcStep(t, "a", noop))

		if err := g.AddStep(funcStep(t, "a", noop)); !errors.Is(err, pipeline.ErrDuplicateStep) {
			t.Errorf("error = %v, want ErrDuplicateStep", err)
		}
	})

	t.Run("reserved terminal id rejected", func(t *testing.T) {
		g := pipeline.NewGraph()
		if err := g.AddStep(funcStep(t, pipeline.End, noop)); err == nil {
			t.Error("expected error adding step with terminal id")
		}
	})

	t.Run("second outgoing edge rejected", func(t *testing.T) {
		g := pipeline.NewGraph()
		g.AddEdge("a", "b")

		if err := g.AddEdge("a", "c"); !errors.Is(err, pipeline.ErrDuplicateEdge) {
			t.Errorf("error = %v, want ErrDuplicateEdge", err)
		}
	})
}
