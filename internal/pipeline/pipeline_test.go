package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nao1215/captioner/internal/model"
)

type counter struct {
	visited []model.StageName
}

func visit(name model.StageName) func(context.Context, *counter) error {
	return func(_ context.Context, c *counter) error {
		c.visited = append(c.visited, name)
		return nil
	}
}

func TestPipelineNew(t *testing.T) {
	t.Parallel()

	p := New([]Stage[counter]{
		{Name: model.StageNormalize, Required: true, Run: visit(model.StageNormalize)},
		{Name: model.StageClassify, Run: visit(model.StageClassify)},
	})
	if p.StageCount() != 2 {
		t.Errorf("expected 2 stages, got %d", p.StageCount())
	}
	names := p.StageNames()
	if names[0] != model.StageNormalize || names[1] != model.StageClassify {
		t.Errorf("unexpected stage names %v", names)
	}
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs every stage in order", func(t *testing.T) {
		t.Parallel()

		stages := make([]Stage[counter], 0, len(model.StageNames()))
		for _, n := range model.StageNames() {
			stages = append(stages, Stage[counter]{Name: n, Run: visit(n)})
		}
		state := &counter{}
		timings, err := New(stages).Execute(context.Background(), state)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(state.visited) != len(model.StageNames()) {
			t.Fatalf("expected all stages to run, got %v", state.visited)
		}
		for i, n := range model.StageNames() {
			if state.visited[i] != n || timings[i].Stage != n || timings[i].Status != model.StageCompleted {
				t.Errorf("stage %d: visited %s, timing %+v", i, state.visited[i], timings[i])
			}
		}
	})

	t.Run("required failure skips the rest", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("boom")
		state := &counter{}
		timings, err := New([]Stage[counter]{
			{Name: model.StageNormalize, Required: true, Run: func(context.Context, *counter) error { return wantErr }},
			{Name: model.StageClassify, Run: visit(model.StageClassify)},
			{Name: model.StageDetect, Run: visit(model.StageDetect)},
		}).Execute(context.Background(), state)

		if !errors.Is(err, wantErr) {
			t.Fatalf("expected %v, got %v", wantErr, err)
		}
		if len(state.visited) != 0 {
			t.Errorf("no stage should run after a required failure, got %v", state.visited)
		}
		if len(timings) != 3 {
			t.Fatalf("expected a timing per stage, got %d", len(timings))
		}
		if timings[0].Status != model.StageFailed || timings[0].Error != "boom" {
			t.Errorf("unexpected first timing %+v", timings[0])
		}
		for _, tm := range timings[1:] {
			if tm.Status != model.StageSkipped {
				t.Errorf("expected skipped, got %+v", tm)
			}
		}
	})

	t.Run("optional failure and panic continue", func(t *testing.T) {
		t.Parallel()

		state := &counter{}
		timings, err := New([]Stage[counter]{
			{Name: model.StageClassify, Run: func(context.Context, *counter) error { return errors.New("no model") }},
			{Name: model.StageDetect, Run: func(context.Context, *counter) error { panic("detector exploded") }},
			{Name: model.StageOCR, Run: func(context.Context, *counter) error { return ErrStageSkipped }},
			{Name: model.StageSemantic, Run: visit(model.StageSemantic)},
		}).Execute(context.Background(), state)

		if err != nil {
			t.Fatalf("optional failures must not abort, got %v", err)
		}
		want := []model.StageStatus{model.StageFailed, model.StageFailed, model.StageSkipped, model.StageCompleted}
		for i, s := range want {
			if timings[i].Status != s {
				t.Errorf("stage %s: got %s, want %s", timings[i].Stage, timings[i].Status, s)
			}
		}
		if len(state.visited) != 1 {
			t.Errorf("expected the last stage to run, got %v", state.visited)
		}
	})

	t.Run("required panic is fatal", func(t *testing.T) {
		t.Parallel()

		_, err := New([]Stage[counter]{
			{Name: model.StageNormalize, Required: true, Run: func(context.Context, *counter) error { panic("bad input") }},
		}).Execute(context.Background(), &counter{})
		if err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("durations use the clock", func(t *testing.T) {
		t.Parallel()

		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		tick := 0
		clock := func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Millisecond)
		}
		timings, _ := New([]Stage[counter]{
			{Name: model.StageScore, Run: visit(model.StageScore)},
		}, WithClock(clock)).Execute(context.Background(), &counter{})
		if timings[0].Duration != time.Millisecond {
			t.Errorf("expected 1ms, got %v", timings[0].Duration)
		}
	})
}
