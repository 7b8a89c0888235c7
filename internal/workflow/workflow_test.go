package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/newslens/reframe/internal/blueprint"
	"github.com/newslens/reframe/internal/workflow"
	"github.com/newslens/reframe/pkg/generation"
	"github.com/newslens/reframe/pkg/pipeline"
)

const testHeadline = "Dog attacks 4-year-old causing injuries"

// stageCaller scripts replies per pipeline stage, identified by the system
// instructions each stage sends.
type stageCaller struct {
	mu      sync.Mutex
	calls   []string
	replies map[string]map[string]any
	fails   map[string]*generation.FailureResult
}

func stageOf(messages []generation.Message) string {
	var sys string
	for _, m := range messages {
		if m.Role == generation.RoleSystem {
			sys = m.Content
			break
		}
	}

	switch {
	case strings.Contains(sys, "anonymized_text"):
		return "anonymize"
	case strings.Contains(sys, "synthesizing"):
		return "synthesize"
	case strings.Contains(sys, "frames its subject"):
		return "framing"
	case strings.Contains(sys, "emotional register"):
		return "emotion"
	case strings.Contains(sys, "agency attribution"):
		return "agency"
	}
	return "unknown"
}

func (c *stageCaller) Call(_ context.Context, messages []generation.Message, _ generation.Options) (map[string]any, *generation.FailureResult) {
	stage := stageOf(messages)

	c.mu.Lock()
	c.calls = append(c.calls, stage)
	c.mu.Unlock()

	if fail, ok := c.fails[stage]; ok {
		return nil, fail
	}
	if reply, ok := c.replies[stage]; ok {
		return reply, nil
	}
	return nil, &generation.FailureResult{Error: "no scripted reply for " + stage}
}

func (c *stageCaller) called(stage string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.calls {
		if s == stage {
			return true
		}
	}
	return false
}

func happyReplies() map[string]map[string]any {
	analyzer := func(frame string) map[string]any {
		return map[string]any{
			"frame_type":         frame,
			"explanation":        "the headline centers [ENTITY_A] as the actor",
			"alternate_headline": "4-year-old injured in encounter with [ENTITY_A]",
		}
	}

	return map[string]map[string]any{
		"anonymize": {
			"anonymized_text": "[ENTITY_A] attacks 4-year-old causing injuries",
			"placeholders":    map[string]any{"[ENTITY_A]": "Dog"},
		},
		"framing": analyzer("aggressor"),
		"emotion": analyzer("alarm"),
		"agency":  analyzer("explicit"),
		"synthesize": {
			"comparison_summary": "All analyses agree [ENTITY_A] is framed as the aggressor.",
			"flipped_headline":   "4-year-old suffers injuries in encounter with [ENTITY_A]",
		},
	}
}

type mockRecorder struct {
	mu   sync.Mutex
	cmds []workflow.RecordCommand
	id   uuid.UUID
	err  error
}

func (m *mockRecorder) Record(_ context.Context, cmd workflow.RecordCommand) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return uuid.Nil, m.err
	}
	m.cmds = append(m.cmds, cmd)
	return m.id, nil
}

func newRuntime(caller generation.Caller, rec workflow.Recorder) *workflow.Runtime {
	return &workflow.Runtime{
		Caller:    caller,
		Options:   generation.Options{Model: "test-model"},
		Recorder:  rec,
		Blueprint: blueprint.Default(),
		ModelName: "test-model",
		Logger:    slog.New(slog.DiscardHandler),
	}
}

func TestExecute(t *testing.T) {
	t.Run("full run persists and reverts tokens", func(t *testing.T) {
		caller := &stageCaller{replies: happyReplies()}
		rec := &mockRecorder{id: uuid.New()}

		result, err := workflow.Execute(context.Background(), newRuntime(caller, rec), testHeadline)
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}

		if result.ReframedHeadline != "4-year-old suffers injuries in encounter with Dog" {
			t.Errorf("ReframedHeadline = %q", result.ReframedHeadline)
		}
		if !strings.Contains(result.ComparisonSummary, "Dog is framed") {
			t.Errorf("ComparisonSummary = %q, want reverted token", result.ComparisonSummary)
		}

		for _, name := range []string{"framing", "emotion", "agency"} {
			if result.AnalysisFailures[name] {
				t.Errorf("AnalysisFailures[%s] = true, want false", name)
			}
			if got := result.AlternateHeadlines[name]; got != "4-year-old injured in encounter with Dog" {
				t.Errorf("AlternateHeadlines[%s] = %q", name, got)
			}
		}

		if !result.SaveStatus.Saved {
			t.Errorf("SaveStatus = %+v, want saved", result.SaveStatus)
		}
		if result.SaveStatus.ID == nil || *result.SaveStatus.ID != rec.id {
			t.Errorf("SaveStatus.ID = %v, want %v", result.SaveStatus.ID, rec.id)
		}

		if len(rec.cmds) != 1 {
			t.Fatalf("recorded commands = %d, want 1", len(rec.cmds))
		}
		cmd := rec.cmds[0]
		if cmd.InputHeadline != testHeadline {
			t.Errorf("InputHeadline = %q", cmd.InputHeadline)
		}
		if cmd.ModelName != "test-model" {
			t.Errorf("ModelName = %q", cmd.ModelName)
		}

		var snapshot map[string]any
		if err := json.Unmarshal(cmd.Snapshots, &snapshot); err != nil {
			t.Fatalf("snapshots not JSON: %v", err)
		}
		if _, ok := snapshot["analyses"]; !ok {
			t.Error("snapshots missing analyses")
		}
	})

	t.Run("one failed analyzer degrades only itself", func(t *testing.T) {
		caller := &stageCaller{
			replies: happyReplies(),
			fails: map[string]*generation.FailureResult{
				"emotion": {Error: "service returned status 500"},
			},
		}
		rec := &mockRecorder{id: uuid.New()}

		result, err := workflow.Execute(context.Background(), newRuntime(caller, rec), testHeadline)
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}

		if !result.AnalysisFailures["emotion"] {
			t.Error("AnalysisFailures[emotion] = false, want true")
		}
		if result.AnalysisFailures["framing"] || result.AnalysisFailures["agency"] {
			t.Errorf("sibling failures = %v, want false", result.AnalysisFailures)
		}

		if _, ok := generation.AsFailure(result.Analyses["emotion"]); !ok {
			t.Errorf("Analyses[emotion] = %T, want FailureResult", result.Analyses["emotion"])
		}
		if got := result.AlternateHeadlines["emotion"]; got != "not applicable" {
			t.Errorf("AlternateHeadlines[emotion] = %q, want not applicable", got)
		}

		if !result.SaveStatus.Saved {
			t.Errorf("SaveStatus = %+v, want saved despite analyzer failure", result.SaveStatus)
		}
	})

	t.Run("all analyzers failed still synthesizes", func(t *testing.T) {
		down := &generation.FailureResult{Error: "down"}
		caller := &stageCaller{
			replies: happyReplies(),
			fails: map[string]*generation.FailureResult{
				"framing": down, "emotion": down, "agency": down,
			},
		}
		rec := &mockRecorder{id: uuid.New()}

		result, err := workflow.Execute(context.Background(), newRuntime(caller, rec), testHeadline)
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}

		if !caller.called("synthesize") {
			t.Error("synthesize never ran")
		}
		for name, failed := range result.AnalysisFailures {
			if !failed {
				t.Errorf("AnalysisFailures[%s] = false, want true", name)
			}
		}
	})

	t.Run("failed synthesis records missing markers", func(t *testing.T) {
		caller := &stageCaller{
			replies: happyReplies(),
			fails: map[string]*generation.FailureResult{
				"synthesize": {Error: "down"},
			},
		}
		rec := &mockRecorder{id: uuid.New()}

		result, err := workflow.Execute(context.Background(), newRuntime(caller, rec), testHeadline)
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}

		if result.ReframedHeadline != "[missing]" {
			t.Errorf("ReframedHeadline = %q, want [missing]", result.ReframedHeadline)
		}
		if result.ComparisonSummary != "[missing]" {
			t.Errorf("ComparisonSummary = %q, want [missing]", result.ComparisonSummary)
		}
		if !result.SaveStatus.Saved {
			t.Errorf("SaveStatus = %+v, want saved with markers", result.SaveStatus)
		}
	})

	t.Run("persistence failure never fails the run", func(t *testing.T) {
		caller := &stageCaller{replies: happyReplies()}
		rec := &mockRecorder{err: errors.New("connection refused")}

		result, err := workflow.Execute(context.Background(), newRuntime(caller, rec), testHeadline)
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}

		if result.SaveStatus.Saved {
			t.Error("SaveStatus.Saved = true, want false")
		}
		if !strings.Contains(result.SaveStatus.Message, "connection refused") {
			t.Errorf("SaveStatus.Message = %q", result.SaveStatus.Message)
		}
		if result.ReframedHeadline == "" {
			t.Error("run output missing despite save failure")
		}
	})

	t.Run("anonymization failure passes text through", func(t *testing.T) {
		caller := &stageCaller{
			replies: happyReplies(),
			fails: map[string]*generation.FailureResult{
				"anonymize": {Error: "down"},
			},
		}
		rec := &mockRecorder{id: uuid.New()}

		result, err := workflow.Execute(context.Background(), newRuntime(caller, rec), testHeadline)
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}

		if result.AnonymizedHeadline != testHeadline {
			t.Errorf("AnonymizedHeadline = %q, want pass-through", result.AnonymizedHeadline)
		}
		if len(result.Placeholders) != 0 {
			t.Errorf("Placeholders = %v, want empty", result.Placeholders)
		}
	})

	t.Run("empty headline rejected", func(t *testing.T) {
		caller := &stageCaller{replies: happyReplies()}

		_, err := workflow.Execute(context.Background(), newRuntime(caller, &mockRecorder{}), "   ")
		if !errors.Is(err, workflow.ErrEmptyHeadline) {
			t.Errorf("error = %v, want ErrEmptyHeadline", err)
		}
	})

	t.Run("unknown blueprint step rejected", func(t *testing.T) {
		bp := blueprint.Default()
		bp.Steps = append(bp.Steps, blueprint.Step{ID: "mystery", Kind: "function"})
		bp.Edges = append(bp.Edges, blueprint.Edge{From: "mystery", To: "end"})

		rt := newRuntime(&stageCaller{replies: happyReplies()}, &mockRecorder{})
		rt.Blueprint = bp

		_, err := workflow.Execute(context.Background(), rt, testHeadline)
		if !errors.Is(err, workflow.ErrUnknownStep) {
			t.Errorf("error = %v, want ErrUnknownStep", err)
		}
	})

	t.Run("kind mismatch rejected", func(t *testing.T) {
		bp := blueprint.Default()
		bp.Steps[0].Kind = "generation"

		rt := newRuntime(&stageCaller{replies: happyReplies()}, &mockRecorder{})
		rt.Blueprint = bp

		_, err := workflow.Execute(context.Background(), rt, testHeadline)
		if !errors.Is(err, workflow.ErrKindMismatch) {
			t.Errorf("error = %v, want ErrKindMismatch", err)
		}
	})

	t.Run("cyclic blueprint hits step ceiling", func(t *testing.T) {
		bp := &blueprint.Blueprint{
			Entry:     "anonymize",
			StepLimit: 4,
			Steps: []blueprint.Step{
				{ID: "anonymize", Kind: "function"},
				{ID: "collect", Kind: "function"},
			},
			Edges: []blueprint.Edge{
				{From: "anonymize", To: "collect"},
				{From: "collect", To: "anonymize"},
			},
		}
		if err := bp.Validate(); err != nil {
			t.Fatalf("fixture blueprint invalid: %v", err)
		}

		rt := newRuntime(&stageCaller{replies: happyReplies()}, &mockRecorder{})
		rt.Blueprint = bp

		_, err := workflow.Execute(context.Background(), rt, testHeadline)
		if !errors.Is(err, pipeline.ErrStepLimit) {
			t.Errorf("error = %v, want ErrStepLimit", err)
		}
	})
}
